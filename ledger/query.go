package ledger

import (
	"iter"
)

// Predicate selects transactions.
type Predicate func(tx Transaction) bool

// ByBatch matches transactions of one batch.
func ByBatch(batchID string) Predicate {
	return func(tx Transaction) bool { return tx.BatchID == batchID }
}

// ByEventType matches transactions with the given event type.
func ByEventType(eventType string) Predicate {
	return func(tx Transaction) bool { return tx.EventType == eventType }
}

// BySender matches transactions sent by sender.
func BySender(sender string) Predicate {
	return func(tx Transaction) bool { return tx.Sender == sender }
}

// ByRecipient matches transactions addressed to recipient.
func ByRecipient(recipient string) Predicate {
	return func(tx Transaction) bool { return tx.Recipient == recipient }
}

// All matches transactions satisfying every predicate.
func All(preds ...Predicate) Predicate {
	return func(tx Transaction) bool {
		for _, p := range preds {
			if !p(tx) {
				return false
			}
		}
		return true
	}
}

// Transactions yields the index of the containing block and every sealed
// transaction matching match, in chain order. A nil match yields everything.
// Each range over the sequence scans the chain as it is when the range starts.
func (l *Ledger) Transactions(match Predicate) iter.Seq2[uint64, Transaction] {
	return func(yield func(uint64, Transaction) bool) {
		for _, b := range l.snapshot() {
			for _, tx := range b.Transactions {
				if match != nil && !match(tx) {
					continue
				}
				if !yield(b.Index, tx) {
					return
				}
			}
		}
	}
}

// Entry is a sealed transaction together with the block that holds it.
type Entry struct {
	Transaction
	BlockIndex     uint64 `json:"block_index"`
	BlockHash      string `json:"block_hash"`
	BlockTimestamp int64  `json:"block_timestamp"`
	PreviousHash   string `json:"previous_hash"`
}

// History returns every sealed transaction of a batch in chain order.
func (l *Ledger) History(batchID string) []Entry {
	return l.HistoryByBatch(batchID)[batchID]
}

// HistoryByBatch groups the sealed transactions of several batches. Every
// requested batch has a key in the result, even when it has no transactions.
func (l *Ledger) HistoryByBatch(batchIDs ...string) map[string][]Entry {
	out := make(map[string][]Entry, len(batchIDs))
	for _, id := range batchIDs {
		out[id] = []Entry{}
	}
	for _, b := range l.snapshot() {
		for _, tx := range b.Transactions {
			entries, ok := out[tx.BatchID]
			if !ok {
				continue
			}
			out[tx.BatchID] = append(entries, Entry{
				Transaction:    tx,
				BlockIndex:     b.Index,
				BlockHash:      b.Hash,
				BlockTimestamp: b.Timestamp,
				PreviousHash:   b.PreviousHash,
			})
		}
	}
	return out
}
