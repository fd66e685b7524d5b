package ledger

import (
	"errors"
	"testing"
)

// TestNewTransactionEncodesDetails verifies that the details value is stored as
// JSON text and that a nil details value becomes an empty object.
func TestNewTransactionEncodesDetails(t *testing.T) {
	tx, err := NewTransaction("WHEAT-001", "WAREHOUSE-A", "WHEAT-001", EventHarvest, map[string]any{
		"quantity": 120,
		"unit":     "kg",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Data != `{"quantity":120,"unit":"kg"}` {
		t.Fatalf("unexpected data: %s", tx.Data)
	}

	tx, err = NewTransaction("WHEAT-001", "WAREHOUSE-A", "WHEAT-001", EventShip, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Data != "{}" {
		t.Fatalf("nil details should encode as {}, got %s", tx.Data)
	}
}

// TestNewTransactionRejectsMissingFields verifies that construction fails with a
// ValidationError naming the first empty field.
func TestNewTransactionRejectsMissingFields(t *testing.T) {
	cases := []struct {
		name                                   string
		sender, recipient, batchID, eventType string
		field                                  string
	}{
		{"sender", "", "WAREHOUSE-A", "WHEAT-001", EventShip, "sender"},
		{"recipient", "WHEAT-001", "", "WHEAT-001", EventShip, "recipient"},
		{"batch", "WHEAT-001", "WAREHOUSE-A", "", EventShip, "batch_id"},
		{"event", "WHEAT-001", "WAREHOUSE-A", "WHEAT-001", "", "event_type"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewTransaction(c.sender, c.recipient, c.batchID, c.eventType, nil)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != c.field {
				t.Fatalf("expected field %s, got %s", c.field, verr.Field)
			}
		})
	}
}

// TestNewTransactionRejectsUnencodableDetails verifies that details which cannot be
// encoded as JSON are reported against the data field.
func TestNewTransactionRejectsUnencodableDetails(t *testing.T) {
	_, err := NewTransaction("a", "b", "c", EventHarvest, make(chan int))
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "data" {
		t.Fatalf("expected data ValidationError, got %v", err)
	}
}

// TestRequiredFieldsValidator verifies the built-in validator used by submitters.
func TestRequiredFieldsValidator(t *testing.T) {
	if err := RequiredFields.Validate(Transaction{Sender: "a", Recipient: "b", Data: "{}", BatchID: "c", EventType: "d"}); err != nil {
		t.Fatalf("complete transaction rejected: %v", err)
	}
	if err := RequiredFields.Validate(Transaction{Sender: "a"}); err == nil {
		t.Fatal("incomplete transaction accepted")
	}
}

// TestValidateRejectsInvalidUTF8 verifies that every field must be valid UTF-8,
// since blocks are exchanged as JSON and other bytes would not survive it.
func TestValidateRejectsInvalidUTF8(t *testing.T) {
	base := Transaction{Sender: "FARM-7", Recipient: "SILO-2", Data: `{"note":"récolte"}`, BatchID: "WHEAT-001", EventType: EventHarvest}
	if err := base.Validate(); err != nil {
		t.Fatalf("multi-byte UTF-8 rejected: %v", err)
	}
	cases := map[string]func(tx *Transaction){
		"sender":     func(tx *Transaction) { tx.Sender = "FARM-\xff" },
		"recipient":  func(tx *Transaction) { tx.Recipient = "SILO\xc3" },
		"data":       func(tx *Transaction) { tx.Data = "\"\xff\"" },
		"batch_id":   func(tx *Transaction) { tx.BatchID = "WHEAT-\xed\xa0\x80" },
		"event_type": func(tx *Transaction) { tx.EventType = "HARVEST\xfe" },
	}
	for field, mutate := range cases {
		tx := base
		mutate(&tx)
		var verr *ValidationError
		if err := RequiredFields.Validate(tx); !errors.As(err, &verr) || verr.Field != field {
			t.Fatalf("expected %s ValidationError, got %v", field, err)
		}
	}
	if _, err := NewTransaction("FARM-\xff", "SILO-2", "WHEAT-001", EventHarvest, nil); err == nil {
		t.Fatal("NewTransaction accepted an invalid UTF-8 sender")
	}
}

// TestAddressIsDeterministic verifies the user id to address derivation.
func TestAddressIsDeterministic(t *testing.T) {
	const expected = "b498bde80fe8009b74801a796df926816ad0b59add464047ef119ea0f77eca3f"
	if got := Address("farmer-joe"); got != expected {
		t.Fatalf("expected %s, got %s", expected, got)
	}
	if Address("farmer-joe") == Address("farmer-jo") {
		t.Fatal("different users should map to different addresses")
	}
}
