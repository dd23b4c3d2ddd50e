package amqp

import (
	"encoding/json"
	"time"
)

// PostingEvent announces that a ledger mutation touched one or more
// account balances. It carries only identifiers; consumers recompute
// whatever they need from the database.
type PostingEvent struct {
	Op         string    `json:"op"` // e.g. "transaction.created", "transfer.deleted"
	OwnerID    int64     `json:"owner_id"`
	PostingID  int64     `json:"posting_id"`
	AccountIDs []int64   `json:"account_ids"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewPostingEvent builds an event for the given operation and accounts.
func NewPostingEvent(op string, ownerID, postingID int64, accountIDs ...int64) *PostingEvent {
	return &PostingEvent{
		Op:         op,
		OwnerID:    ownerID,
		PostingID:  postingID,
		AccountIDs: accountIDs,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *PostingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PostingEventFromJSON decodes an event from JSON bytes.
func PostingEventFromJSON(data []byte) (*PostingEvent, error) {
	var e PostingEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
