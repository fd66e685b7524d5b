// Package details validates the JSON detail payload of supply-chain events
// against per-event-type JSON Schemas before they are submitted to a ledger.
package details

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"

	"github.com/luca-patrignani/agriblock/ledger"
)

// Registry maps event types to compiled schemas. Event types without a schema
// only need well-formed JSON details.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*gojsonschema.Schema
}

func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*gojsonschema.Schema)}
}

// Register compiles schema and uses it for eventType, replacing any previous one.
func (r *Registry) Register(eventType, schema string) error {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		return fmt.Errorf("details: schema for %s: %w", eventType, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[eventType] = s
	return nil
}

// EventTypes returns the event types holding a schema.
func (r *Registry) EventTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.schemas))
	for t := range r.schemas {
		out = append(out, t)
	}
	return out
}

// Validate implements ledger.Validator.
func (r *Registry) Validate(tx ledger.Transaction) error {
	if !utf8.ValidString(tx.Data) {
		return &ledger.ValidationError{Field: "data", Reason: "details are not valid UTF-8"}
	}
	if !json.Valid([]byte(tx.Data)) {
		return &ledger.ValidationError{Field: "data", Reason: "details are not valid JSON"}
	}
	r.mu.RLock()
	s, ok := r.schemas[tx.EventType]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	res, err := s.Validate(gojsonschema.NewStringLoader(tx.Data))
	if err != nil {
		return &ledger.ValidationError{Field: "data", Reason: err.Error()}
	}
	if res.Valid() {
		return nil
	}
	reasons := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		reasons = append(reasons, e.String())
	}
	return &ledger.ValidationError{
		Field:  "data",
		Reason: fmt.Sprintf("%s details: %s", tx.EventType, strings.Join(reasons, "; ")),
	}
}

var _ ledger.Validator = (*Registry)(nil)
