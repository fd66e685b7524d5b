package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestExportImportRoundTrip verifies that an exported chain imports into a ledger
// that verifies and equals the original block for block.
func TestExportImportRoundTrip(t *testing.T) {
	l := newTestLedger(t, 3, WithSigner(hmacSigner{id: "coop"}))
	l.Submit(wheatEvents()...)
	l.Submit(Transaction{
		Sender:    "Coopérative d'Épeautre",
		Recipient: "農場-7 <silo> & \"dock\"",
		Data:      "{\"note\":\"é\u2028<>&\\u00e9\",\"tab\":\"a\\tb\"}",
		BatchID:   "ÉPEAUTRE-№1",
		EventType: "QUALITÄTSPRÜFUNG 🌾",
	})
	if _, err := l.SealBlock(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := l.Export(&buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	imported, err := Import(&buf, WithSealVerifier(hmacVerifier{trusted: "coop"}))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if err := imported.Verify(); err != nil {
		t.Fatalf("imported chain should verify: %v", err)
	}
	if diff := cmp.Diff(l.Blocks(), imported.Blocks()); diff != "" {
		t.Fatalf("imported chain differs (-want +got):\n%s", diff)
	}
}

// TestExportFieldOrder verifies the stable field order of exported blocks.
func TestExportFieldOrder(t *testing.T) {
	l := New()
	var buf bytes.Buffer
	if err := l.Export(&buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	out := buf.String()
	last := -1
	for _, field := range []string{`"index"`, `"previous_hash"`, `"timestamp"`, `"transactions"`, `"hash"`} {
		pos := strings.Index(out, field)
		if pos <= last {
			t.Fatalf("field %s out of order in %s", field, out)
		}
		last = pos
	}
	if strings.Contains(out, "attestation") {
		t.Fatalf("unsigned blocks should not export an attestation: %s", out)
	}
}

// TestImportContinues verifies that an imported ledger keeps sealing on top of
// the imported tip.
func TestImportContinues(t *testing.T) {
	l := newTestLedger(t, 2)
	var buf bytes.Buffer
	if err := l.Export(&buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	imported, err := Import(&buf)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	imported.Submit(wheatEvents()...)
	b, err := imported.SealBlock()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Index != 3 || b.PreviousHash != l.Latest().Hash {
		t.Fatalf("block not chained on imported tip: %+v", b)
	}
}

// TestImportRejectsTamperedChain verifies that corruption in transit is reported
// with the first violation.
func TestImportRejectsTamperedChain(t *testing.T) {
	blocks := newTestLedger(t, 3).Blocks()
	blocks[2].Transactions[1].EventType = EventSoldToConsumer
	payload, err := json.Marshal(blocks)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	_, err = Import(bytes.NewReader(payload))
	if !errors.Is(err, &ChainError{Index: 2, Kind: HashMismatch}) {
		t.Fatalf("expected hash mismatch at 2, got %v", err)
	}
}

// TestImportRejectsTrailingData verifies that anything after the block array,
// such as a second concatenated export, is refused.
func TestImportRejectsTrailingData(t *testing.T) {
	var buf bytes.Buffer
	if err := newTestLedger(t, 1).Export(&buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	single := buf.String()
	for _, payload := range []string{single + single, single + " garbage", single + "]"} {
		if _, err := Import(strings.NewReader(payload)); err == nil {
			t.Fatalf("trailing data accepted: %q", payload[len(single):])
		}
	}
	if _, err := Import(strings.NewReader(single + "\n\t ")); err != nil {
		t.Fatalf("trailing whitespace rejected: %v", err)
	}
}

// TestImportRejectsEmptyChain verifies that a chain without genesis is refused.
func TestImportRejectsEmptyChain(t *testing.T) {
	if _, err := Import(strings.NewReader("[]")); !errors.Is(err, ErrEmptyChain) {
		t.Fatalf("expected ErrEmptyChain, got %v", err)
	}
	if _, err := Import(strings.NewReader("{not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
