package core

import (
	"errors"
	"testing"
)

func TestParseCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "whole amount", input: "42", want: 4200},
		{name: "two decimals", input: "12.34", want: 1234},
		{name: "one decimal", input: "7.5", want: 750},
		{name: "comma separator", input: "19,99", want: 1999},
		{name: "leading and trailing spaces", input: " 3.00 ", want: 300},
		{name: "third decimal rounds half up", input: "1.005", want: 101},
		{name: "third decimal rounds down", input: "1.004", want: 100},
		{name: "zero rejected", input: "0", wantErr: true},
		{name: "negative rejected", input: "-5.00", wantErr: true},
		{name: "empty rejected", input: "", wantErr: true},
		{name: "garbage rejected", input: "abc", wantErr: true},
		{name: "two separators rejected", input: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCents(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCents(%q) expected error, got %d", tt.input, got)
				}
				if !errors.Is(err, ErrValidation) {
					t.Errorf("ParseCents(%q) error %v is not a validation error", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCents(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSignedCents(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{input: "100.50", want: 10050},
		{input: "-100.50", want: -10050},
		{input: "0", want: 0},
		{input: "-0.01", want: -1},
		{input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseSignedCents(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSignedCents(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSignedCents(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSignedCents(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{cents: 0, want: "0.00"},
		{cents: 5, want: "0.05"},
		{cents: 1234, want: "12.34"},
		{cents: 123456, want: "1234.56"},
		{cents: -1, want: "-0.01"},
		{cents: -123456, want: "-1234.56"},
	}

	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 100}).Validate(); err != nil {
		t.Errorf("positive amount should be valid: %v", err)
	}
	for _, cents := range []int64{0, -100} {
		if err := (Money{Cents: cents}).Validate(); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Money{%d}.Validate() = %v, want ErrInvalidAmount", cents, err)
		}
	}
}
