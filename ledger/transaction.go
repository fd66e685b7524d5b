package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Event types recorded by the supply chain. EventType is free-form, these are
// the tags the marketplace emits.
const (
	EventProductCreated      = "PRODUCT_CREATED"
	EventHarvest             = "HARVEST"
	EventBatchSplit          = "BATCH_SPLIT"
	EventDistributorPurchase = "DISTRIBUTOR_PURCHASE"
	EventOrderCreated        = "ORDER_CREATED"
	EventShipmentAssigned    = "SHIPMENT_ASSIGNED"
	EventShip                = "SHIP"
	EventInTransit           = "IN_TRANSIT"
	EventDelivered           = "DELIVERED"
	EventReceive             = "RECEIVE"
	EventSoldToConsumer      = "SOLD_TO_CONSUMER"
)

// Transaction records one event on a batch. Data holds the event details as
// JSON text and is never interpreted by the ledger.
type Transaction struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Data      string `json:"data"`
	BatchID   string `json:"batch_id"`
	EventType string `json:"event_type"`
}

// NewTransaction builds a transaction whose Data is the JSON encoding of
// details. A nil details value is recorded as an empty object.
func NewTransaction(sender, recipient, batchID, eventType string, details any) (Transaction, error) {
	if details == nil {
		details = struct{}{}
	}
	b, err := json.Marshal(details)
	if err != nil {
		return Transaction{}, &ValidationError{Field: "data", Reason: err.Error()}
	}
	tx := Transaction{
		Sender:    sender,
		Recipient: recipient,
		Data:      string(b),
		BatchID:   batchID,
		EventType: eventType,
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// Validate reports the first field that is empty or not valid UTF-8. Blocks
// travel as JSON, which cannot carry other byte sequences unchanged.
func (tx Transaction) Validate() error {
	fields := []struct {
		name, value string
	}{
		{"sender", tx.Sender},
		{"recipient", tx.Recipient},
		{"data", tx.Data},
		{"batch_id", tx.BatchID},
		{"event_type", tx.EventType},
	}
	for _, f := range fields {
		if f.value == "" {
			return &ValidationError{Field: f.name, Reason: "required field is empty"}
		}
		if !utf8.ValidString(f.value) {
			return &ValidationError{Field: f.name, Reason: "not valid UTF-8"}
		}
	}
	return nil
}

func (tx Transaction) String() string {
	return fmt.Sprintf("%s %s: %s -> %s", tx.EventType, tx.BatchID, tx.Sender, tx.Recipient)
}

// Address derives the 32-byte hex address used on the chain for a user id.
// The derivation is deterministic so the same user always maps to the same
// sender or recipient.
func Address(userID string) string {
	sum := sha256.Sum256([]byte("agriblock-" + userID))
	return hex.EncodeToString(sum[:])
}

// Validator checks a transaction before it is submitted. The ledger never
// calls validators itself; submitters run them.
type Validator interface {
	Validate(tx Transaction) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(tx Transaction) error

func (f ValidatorFunc) Validate(tx Transaction) error {
	return f(tx)
}

// RequiredFields rejects transactions with empty fields.
var RequiredFields Validator = ValidatorFunc(Transaction.Validate)
