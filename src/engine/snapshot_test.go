package engine

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestStateHashDeterministicForIdenticalBooks(t *testing.T) {
	build := func() *Engine {
		eng := NewEngine(Symbol{Name: "BTC-USD", ExchangeType: true}, zerolog.Nop())
		place(t, eng, PlaceCommand{UID: 1, OrderID: 1, Price: 100, Size: 5, Action: ActionBid, Type: OrderTypeGTC})
		place(t, eng, PlaceCommand{UID: 2, OrderID: 2, Price: 101, Size: 3, Action: ActionAsk, Type: OrderTypeGTC})
		return eng
	}

	a := build()
	b := build()

	if a.StateHash() != b.StateHash() {
		t.Fatalf("StateHash differs for identically built books: %d vs %d", a.StateHash(), b.StateHash())
	}
}

func TestStateHashChangesAfterMutation(t *testing.T) {
	eng := newTestEngine()
	before := eng.StateHash()

	place(t, eng, PlaceCommand{UID: 1, OrderID: 1, Price: 100, Size: 5, Action: ActionBid, Type: OrderTypeGTC})
	after := eng.StateHash()

	if before == after {
		t.Fatal("StateHash should change once an order is resting on the book")
	}
}

func TestVerifyInternalStatePassesOnFreshBook(t *testing.T) {
	eng := newTestEngine()
	place(t, eng, PlaceCommand{UID: 1, OrderID: 1, Price: 100, Size: 5, Action: ActionBid, Type: OrderTypeGTC})
	place(t, eng, PlaceCommand{UID: 2, OrderID: 2, Price: 101, Size: 5, Action: ActionAsk, Type: OrderTypeGTC})

	if err := eng.VerifyInternalState(); err != nil {
		t.Fatalf("expected a valid uncrossed book, got %v", err)
	}
}

func TestVerifyInternalStateDetectsCrossedBook(t *testing.T) {
	eng := newTestEngine()
	// Directly construct a crossed book (bid price >= ask price) bypassing
	// the matching path, to exercise the invariant check in isolation.
	eng.book.getOrCreateLevel(ActionAsk, 100).Put(&RestingOrder{OrderID: 1, UID: 1, Size: 5})
	eng.book.getOrCreateLevel(ActionBid, 105).Put(&RestingOrder{OrderID: 2, UID: 2, Size: 5})
	eng.book.orderIndex[1] = &RestingOrder{OrderID: 1, UID: 1, Size: 5}
	eng.book.orderIndex[2] = &RestingOrder{OrderID: 2, UID: 2, Size: 5}

	if err := eng.VerifyInternalState(); err == nil {
		t.Fatal("expected VerifyInternalState to detect a crossed book")
	}
}

func TestGetTotalOrdersVolumeAggregatesAcrossLevels(t *testing.T) {
	eng := newTestEngine()
	place(t, eng, PlaceCommand{UID: 1, OrderID: 1, Price: 100, Size: 5, Action: ActionBid, Type: OrderTypeGTC})
	place(t, eng, PlaceCommand{UID: 1, OrderID: 2, Price: 101, Size: 7, Action: ActionBid, Type: OrderTypeGTC})

	if got := eng.GetTotalOrdersVolume(ActionBid); got != 12 {
		t.Fatalf("GetTotalOrdersVolume = %d, want 12", got)
	}
}

func TestFindUserOrdersFiltersByUID(t *testing.T) {
	eng := newTestEngine()
	place(t, eng, PlaceCommand{UID: 1, OrderID: 1, Price: 100, Size: 5, Action: ActionBid, Type: OrderTypeGTC})
	place(t, eng, PlaceCommand{UID: 2, OrderID: 2, Price: 101, Size: 5, Action: ActionBid, Type: OrderTypeGTC})

	orders := eng.FindUserOrders(1)
	if len(orders) != 1 || orders[0].OrderID != 1 {
		t.Fatalf("FindUserOrders(1) = %+v", orders)
	}
}

func TestSymbolStateHashStableAcrossCalls(t *testing.T) {
	sym := Symbol{Name: "BTC-USD", ExchangeType: true}
	if sym.StateHash() != sym.StateHash() {
		t.Fatal("Symbol.StateHash must be a pure function of its fields")
	}
}
