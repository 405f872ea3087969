package audit

import (
	"path/filepath"
	"testing"

	"limitcore/src/engine"
)

func TestWALAppendAndReplayRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "wal")
	w, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	payloads := [][]byte{
		engine.EncodePlaceCommand(engine.PlaceCommand{UID: 1, OrderID: 1, Price: 100, Size: 5, Action: engine.ActionBid, Type: engine.OrderTypeGTC}),
		engine.EncodeCancelCommand(1, 1),
	}
	opcodes := []engine.Opcode{engine.CommandPlaceOrder, engine.CommandCancelOrder}

	for i, p := range payloads {
		if err := w.Append("BTC-USD", opcodes[i], p); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}

	var got []Record
	if err := w.Replay(func(r Record) { got = append(got, r) }); err != nil {
		t.Fatalf("Replay: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	for i, r := range got {
		if r.Seq != uint64(i+1) {
			t.Fatalf("record %d seq = %d, want %d", i, r.Seq, i+1)
		}
		if r.Symbol != "BTC-USD" {
			t.Fatalf("record %d symbol = %q", i, r.Symbol)
		}
		if r.Opcode != opcodes[i] {
			t.Fatalf("record %d opcode = %v, want %v", i, r.Opcode, opcodes[i])
		}
		if string(r.Payload) != string(payloads[i]) {
			t.Fatalf("record %d payload mismatch", i)
		}
	}
}

func TestWALResumesSequenceAfterReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "wal")
	w, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.Append("BTC-USD", engine.CommandCancelOrder, engine.EncodeCancelCommand(1, 1)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if err := reopened.Append("BTC-USD", engine.CommandCancelOrder, engine.EncodeCancelCommand(2, 2)); err != nil {
		t.Fatalf("Append after reopen: %v", err)
	}

	var seqs []uint64
	if err := reopened.Replay(func(r Record) { seqs = append(seqs, r.Seq) }); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(seqs) != 2 || seqs[0] != 1 || seqs[1] != 2 {
		t.Fatalf("sequence did not resume correctly: %v", seqs)
	}
}
