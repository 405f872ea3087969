// Package audit is a pebble-backed append-only command log: every
// command a Dispatcher applies is durably recorded before execution,
// so a book can be rebuilt by replaying the log after a crash.
// Grounded on UmarFarooq-MP-Loki/infra/wal/wal.go's Append/Replay
// shape, backed by github.com/cockroachdb/pebble instead of that
// package's hand-rolled segment files — pebble is already in the
// domain stack and gives durable, ordered, crash-safe storage for
// free.
package audit

import (
	"encoding/binary"
	"sync"

	"github.com/cockroachdb/pebble"

	"limitcore/src/engine"
	"limitcore/src/wire"
)

// WAL is the durable command log for one engine instance (all symbols
// share it; entries are keyed by a monotonic sequence so Replay
// recovers total command order across symbols).
type WAL struct {
	db  *pebble.DB
	mu  sync.Mutex
	seq uint64
}

// Open creates or reopens the log rooted at dir.
func Open(dir string) (*WAL, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	w := &WAL{db: db}
	w.seq = w.loadLastSeq()
	return w, nil
}

func (w *WAL) loadLastSeq() uint64 {
	iter, err := w.db.NewIter(nil)
	if err != nil {
		return 0
	}
	defer iter.Close()
	if !iter.Last() {
		return 0
	}
	return binary.BigEndian.Uint64(iter.Key())
}

// Append records one command ahead of its execution. Record layout:
// [2 bytes symbol length][symbol bytes][1 byte opcode][payload].
func (w *WAL) Append(symbol string, opcode engine.Opcode, payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seq++
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], w.seq)

	rec := wire.NewWriter(2 + len(symbol) + 1 + len(payload))
	rec.AppendInt16(int16(len(symbol)))
	for i := 0; i < len(symbol); i++ {
		rec.AppendByte(symbol[i])
	}
	rec.AppendByte(byte(opcode))
	for _, b := range payload {
		rec.AppendByte(b)
	}

	return w.db.Set(key[:], rec.Bytes(), pebble.Sync)
}

// Record is one decoded log entry, as produced by Replay.
type Record struct {
	Seq     uint64
	Symbol  string
	Opcode  engine.Opcode
	Payload []byte
}

// Replay walks every recorded command in sequence order.
func (w *WAL) Replay(fn func(Record)) error {
	iter, err := w.db.NewIter(nil)
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq := binary.BigEndian.Uint64(iter.Key())
		val := iter.Value()

		r := wire.NewReader(val, 0)
		symLen := int(r.GetInt16(0))
		symbol := string(val[2 : 2+symLen])
		opcode := engine.Opcode(val[2+symLen])
		payload := val[2+symLen+1:]

		fn(Record{Seq: seq, Symbol: symbol, Opcode: opcode, Payload: payload})
	}
	return nil
}

// Close releases the underlying pebble handle.
func (w *WAL) Close() error {
	return w.db.Close()
}
