package core

import (
	"errors"
	"fmt"
)

// Error classes returned by the ledger and report operations. Specific
// failures wrap one of these, so callers can match either the class or
// the exact case with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

var (
	ErrInvalidAmount        = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidDate          = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrEmptyName            = fmt.Errorf("%w: empty name", ErrValidation)
	ErrEmptyDescription     = fmt.Errorf("%w: empty description", ErrValidation)
	ErrDescriptionTooLong   = fmt.Errorf("%w: description exceeds 200 characters", ErrValidation)
	ErrInvalidAccountKind   = fmt.Errorf("%w: invalid account kind", ErrValidation)
	ErrInvalidCategoryKind  = fmt.Errorf("%w: invalid category kind", ErrValidation)
	ErrCategoryKindMismatch = fmt.Errorf("%w: category kind mismatch", ErrValidation)
	ErrSameAccount          = fmt.Errorf("%w: source and destination account are the same", ErrValidation)
	ErrInvalidMonth         = fmt.Errorf("%w: invalid month", ErrValidation)
	ErrMonthWithoutYear     = fmt.Errorf("%w: month filter requires a year", ErrValidation)
	ErrDuplicateBudget      = fmt.Errorf("%w: budget already exists for this category and month", ErrValidation)
	ErrDuplicateTag         = fmt.Errorf("%w: tag name already in use", ErrValidation)

	ErrAccountNotFound  = fmt.Errorf("%w: account", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("%w: category", ErrNotFound)
	ErrPostingNotFound  = fmt.Errorf("%w: posting", ErrNotFound)
	ErrBudgetNotFound   = fmt.Errorf("%w: budget", ErrNotFound)
	ErrTagNotFound      = fmt.Errorf("%w: tag", ErrNotFound)

	ErrAccountInUse  = fmt.Errorf("%w: account has postings", ErrConflict)
	ErrCategoryInUse = fmt.Errorf("%w: category has postings", ErrConflict)
)
