package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"limitcore/src/engine"
)

type fakeAudit struct {
	mu      sync.Mutex
	entries [][]byte
}

func (f *fakeAudit) Append(symbol string, opcode engine.Opcode, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	f.entries = append(f.entries, cp)
	return nil
}

func (f *fakeAudit) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type fakePublisher struct {
	mu        sync.Mutex
	published int
}

func (f *fakePublisher) PublishExecuted(symbol string, opcode engine.Opcode, response []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published++
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published
}

func placeCmd(orderID uint64, action engine.OrderAction) []byte {
	return engine.EncodePlaceCommand(engine.PlaceCommand{
		UID:     1,
		OrderID: orderID,
		Price:   100,
		Size:    5,
		Action:  action,
		Type:    engine.OrderTypeGTC,
	})
}

func TestDispatcherExecuteAppliesCommandAndAudits(t *testing.T) {
	audit := &fakeAudit{}
	pub := &fakePublisher{}
	d := NewDispatcher(zerolog.Nop(), audit, pub)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := d.Execute(ctx, "BTC-USD", engine.CommandPlaceOrder, placeCmd(1, engine.ActionBid), 0, 1)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	res := engine.DecodePlaceResponse(resp)
	if res.Code != engine.ResultSuccess {
		t.Fatalf("expected success, got %v", res.Code)
	}
	if audit.count() != 1 {
		t.Fatalf("expected 1 audit entry, got %d", audit.count())
	}
	if pub.count() != 1 {
		t.Fatalf("expected 1 publish, got %d", pub.count())
	}
}

func TestDispatcherQueryObservesAppliedCommands(t *testing.T) {
	d := NewDispatcher(zerolog.Nop(), nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := d.Execute(ctx, "ETH-USD", engine.CommandPlaceOrder, placeCmd(1, engine.ActionBid), 0, 1); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var volume uint64
	err := d.Query(ctx, "ETH-USD", func(eng *engine.Engine) {
		volume = eng.GetTotalOrdersVolume(engine.ActionBid)
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if volume != 5 {
		t.Fatalf("volume = %d, want 5", volume)
	}
}

func TestDispatcherSerializesCommandsForSameSymbol(t *testing.T) {
	d := NewDispatcher(zerolog.Nop(), nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := uint64(1); i <= 50; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			_, _ = d.Execute(ctx, "BTC-USD", engine.CommandPlaceOrder, placeCmd(id, engine.ActionBid), 0, 1)
		}(i)
	}
	wg.Wait()

	var count int
	if err := d.Query(ctx, "BTC-USD", func(eng *engine.Engine) {
		count = eng.GetOrdersNum(engine.ActionBid)
	}); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if count != 50 {
		t.Fatalf("expected all 50 concurrent places to land without races, got %d", count)
	}
}

func TestDispatcherKeepsAcceptingCommandsWhenBookStaysValid(t *testing.T) {
	d := NewDispatcher(zerolog.Nop(), nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Normal matching can never leave the book crossed, so the
	// post-command VerifyInternalState check should never trip here and
	// the symbol should keep accepting commands indefinitely.
	if _, err := d.Execute(ctx, "XRP-USD", engine.CommandPlaceOrder, placeCmd(1, engine.ActionAsk), 0, 1); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	crossing := engine.EncodePlaceCommand(engine.PlaceCommand{
		UID: 2, OrderID: 2, Price: 100, Size: 5, Action: engine.ActionBid, Type: engine.OrderTypeGTC,
	})
	if _, err := d.Execute(ctx, "XRP-USD", engine.CommandPlaceOrder, crossing, 0, 2); err != nil {
		t.Fatalf("Execute (matching order): %v", err)
	}

	if _, err := d.Execute(ctx, "XRP-USD", engine.CommandPlaceOrder, placeCmd(3, engine.ActionBid), 0, 3); err != nil {
		t.Fatalf("a healthy symbol should keep accepting commands: %v", err)
	}
}

func TestDispatcherSymbolsListsCreatedWorkers(t *testing.T) {
	d := NewDispatcher(zerolog.Nop(), nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, _ = d.Execute(ctx, "AAA", engine.CommandPlaceOrder, placeCmd(1, engine.ActionBid), 0, 1)
	_, _ = d.Execute(ctx, "BBB", engine.CommandPlaceOrder, placeCmd(1, engine.ActionBid), 0, 1)

	symbols := d.Symbols()
	if len(symbols) != 2 {
		t.Fatalf("expected 2 symbols, got %v", symbols)
	}
}
