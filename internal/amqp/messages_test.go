package amqp

import "testing"

func TestPostingEventRoundTrip(t *testing.T) {
	ev := NewPostingEvent("transfer.created", 1, 42, 3, 7)

	data, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := PostingEventFromJSON(data)
	if err != nil {
		t.Fatalf("PostingEventFromJSON: %v", err)
	}

	if got.Op != "transfer.created" || got.OwnerID != 1 || got.PostingID != 42 {
		t.Errorf("decoded event = %+v", got)
	}
	if len(got.AccountIDs) != 2 || got.AccountIDs[0] != 3 || got.AccountIDs[1] != 7 {
		t.Errorf("account ids = %v, want [3 7]", got.AccountIDs)
	}
}

func TestPostingEventFromJSONRejectsGarbage(t *testing.T) {
	if _, err := PostingEventFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
