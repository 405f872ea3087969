// Package runtime serializes command execution per symbol onto a
// dedicated goroutine, the concurrency boundary spec.md §5 pushes out
// of the matching core. Grounded on
// realmfikri-Limitless/engine/orderbook.go's reqCh-driven worker loop,
// generalized from one fixed book to a registry of symbols created on
// demand.
package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"limitcore/src/engine"
)

// AuditLog records a command's raw wire bytes before it is applied, so
// the book can be replayed after a crash. Satisfied by src/audit.WAL.
type AuditLog interface {
	Append(symbol string, opcode engine.Opcode, payload []byte) error
}

// Publisher announces that a command finished executing against a
// symbol. Satisfied by src/publish.Producer.
type Publisher interface {
	PublishExecuted(symbol string, opcode engine.Opcode, response []byte) error
}

// symbolWorker owns one Engine and a single-goroutine job queue; every
// closure submitted to jobs runs without any lock against that Engine.
type symbolWorker struct {
	engine *engine.Engine
	jobs   chan func()
	faulty error
}

func newSymbolWorker(spec engine.SymbolSpec, log zerolog.Logger) *symbolWorker {
	w := &symbolWorker{
		engine: engine.NewEngine(spec, log),
		jobs:   make(chan func(), 256),
	}
	go w.run()
	return w
}

func (w *symbolWorker) run() {
	for job := range w.jobs {
		job()
	}
}

// Dispatcher is the multi-symbol registry and serialization boundary
// the HTTP and streaming layers submit commands through.
type Dispatcher struct {
	mu      sync.RWMutex
	workers map[string]*symbolWorker
	log     zerolog.Logger
	audit   AuditLog
	publish Publisher
}

// NewDispatcher builds an empty registry. audit and publish may be nil
// when durability/broadcast are not wired (e.g. in tests).
func NewDispatcher(log zerolog.Logger, audit AuditLog, publish Publisher) *Dispatcher {
	return &Dispatcher{
		workers: make(map[string]*symbolWorker),
		log:     log,
		audit:   audit,
		publish: publish,
	}
}

func (d *Dispatcher) getOrCreate(symbolName string) *symbolWorker {
	d.mu.RLock()
	w, ok := d.workers[symbolName]
	d.mu.RUnlock()
	if ok {
		return w
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if w, ok := d.workers[symbolName]; ok {
		return w
	}
	w = newSymbolWorker(engine.Symbol{Name: symbolName, ExchangeType: true}, d.log)
	d.workers[symbolName] = w
	return w
}

// Symbols lists every symbol a worker currently exists for.
func (d *Dispatcher) Symbols() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.workers))
	for name := range d.workers {
		names = append(names, name)
	}
	return names
}

type execResult struct {
	data []byte
	err  error
}

// Execute decodes and applies one command against symbolName's book,
// on that symbol's worker goroutine, and returns the response bytes
// Engine.Execute produced. If the book's invariants are found broken
// afterward, the worker is marked faulty and refuses every later
// command (SPEC_FULL.md §10's fatal tier).
func (d *Dispatcher) Execute(ctx context.Context, symbolName string, opcode engine.Opcode, payload []byte, offset int, timestamp int64) ([]byte, error) {
	w := d.getOrCreate(symbolName)

	if d.audit != nil {
		if err := d.audit.Append(symbolName, opcode, payload[offset:]); err != nil {
			return nil, fmt.Errorf("audit append: %w", err)
		}
	}

	resultCh := make(chan execResult, 1)
	job := func() {
		if w.faulty != nil {
			resultCh <- execResult{nil, w.faulty}
			return
		}
		data, err := w.engine.Execute(opcode, payload, offset, timestamp)
		if err != nil {
			w.faulty = err
			d.log.Error().Str("symbol", symbolName).Err(err).Msg("engine fault, symbol disabled")
			resultCh <- execResult{nil, err}
			return
		}
		if verr := w.engine.VerifyInternalState(); verr != nil {
			w.faulty = verr
			d.log.Error().Str("symbol", symbolName).Err(verr).Msg("engine fault, symbol disabled")
			resultCh <- execResult{nil, verr}
			return
		}
		resultCh <- execResult{data, nil}
	}

	select {
	case w.jobs <- job:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-resultCh:
		if res.err == nil && d.publish != nil {
			if perr := d.publish.PublishExecuted(symbolName, opcode, res.data); perr != nil {
				d.log.Warn().Str("symbol", symbolName).Err(perr).Msg("failed to publish executed command")
			}
		}
		return res.data, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Query runs fn against symbolName's engine on its worker goroutine and
// waits for it to finish, for read-only operations (order lookups,
// snapshots) that must still observe a consistent book.
func (d *Dispatcher) Query(ctx context.Context, symbolName string, fn func(*engine.Engine)) error {
	w := d.getOrCreate(symbolName)
	done := make(chan struct{})
	job := func() {
		fn(w.engine)
		close(done)
	}

	select {
	case w.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
