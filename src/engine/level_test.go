package engine

import "testing"

func TestPriceLevelPutAndRemove(t *testing.T) {
	level := newPriceLevel(100)
	level.Put(&RestingOrder{OrderID: 1, UID: 9, Size: 10})
	level.Put(&RestingOrder{OrderID: 2, UID: 9, Size: 5})

	if level.TotalVolume != 15 {
		t.Fatalf("TotalVolume = %d, want 15", level.TotalVolume)
	}
	if level.NumOrders != 2 {
		t.Fatalf("NumOrders = %d, want 2", level.NumOrders)
	}

	removed, ok := level.Remove(1, 9)
	if !ok || removed.OrderID != 1 {
		t.Fatalf("Remove(1) = %v, %v", removed, ok)
	}
	if level.TotalVolume != 5 || level.NumOrders != 1 {
		t.Fatalf("after remove: volume=%d orders=%d", level.TotalVolume, level.NumOrders)
	}
}

func TestPriceLevelRemoveWrongUIDFails(t *testing.T) {
	level := newPriceLevel(100)
	level.Put(&RestingOrder{OrderID: 1, UID: 9, Size: 10})

	_, ok := level.Remove(1, 42)
	if ok {
		t.Fatal("Remove with wrong UID should fail")
	}
	if level.NumOrders != 1 {
		t.Fatal("bucket must be unchanged after a failed remove")
	}
}

func TestPriceLevelMatchFIFO(t *testing.T) {
	level := newPriceLevel(100)
	level.Put(&RestingOrder{OrderID: 1, UID: 1, Size: 5})
	level.Put(&RestingOrder{OrderID: 2, UID: 2, Size: 5})

	var trades []TradeEvent
	var removedIDs []uint64
	matched := level.Match(7, 0, func(id uint64) { removedIDs = append(removedIDs, id) }, func(t TradeEvent) {
		trades = append(trades, t)
	})

	if matched != 7 {
		t.Fatalf("matched = %d, want 7", matched)
	}
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].MakerOrderID != 1 || trades[0].TradeVolume != 5 || !trades[0].MakerCompleted {
		t.Fatalf("first trade wrong: %+v", trades[0])
	}
	if trades[1].MakerOrderID != 2 || trades[1].TradeVolume != 2 || trades[1].MakerCompleted {
		t.Fatalf("second trade wrong: %+v", trades[1])
	}
	if len(removedIDs) != 1 || removedIDs[0] != 1 {
		t.Fatalf("removedIDs = %v, want [1]", removedIDs)
	}
	if level.TotalVolume != 3 || level.NumOrders != 1 {
		t.Fatalf("level after match: volume=%d orders=%d", level.TotalVolume, level.NumOrders)
	}
}

func TestPriceLevelValidateDetectsMismatch(t *testing.T) {
	level := newPriceLevel(100)
	level.Put(&RestingOrder{OrderID: 1, UID: 1, Size: 10})

	if err := level.Validate(); err != nil {
		t.Fatalf("expected valid bucket, got %v", err)
	}

	level.TotalVolume = 999
	if err := level.Validate(); err == nil {
		t.Fatal("expected Validate to detect the volume mismatch")
	}
}
