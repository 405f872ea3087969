package engine

import "github.com/google/btree"

// GetOrderByID returns the resting order currently indexed under
// orderID, if any.
func (eng *Engine) GetOrderByID(orderID uint64) (*RestingOrder, bool) {
	o, ok := eng.book.orderIndex[orderID]
	return o, ok
}

// FindUserOrders returns every order currently resting for uid, in no
// particular order. Grounded on OrderBookNaiveImpl.findUserOrders.
func (eng *Engine) FindUserOrders(uid uint64) []*RestingOrder {
	var out []*RestingOrder
	for _, o := range eng.book.orderIndex {
		if o.UID == uid {
			out = append(out, o)
		}
	}
	return out
}

// GetOrdersNum returns the number of resting orders on one side.
func (eng *Engine) GetOrdersNum(action OrderAction) int {
	n := 0
	eng.book.treeFor(action).Ascend(func(item btree.Item) bool {
		n += eng.book.levelFor(action, item).NumOrders
		return true
	})
	return n
}

// GetTotalOrdersVolume returns the aggregate remaining size resting on
// one side.
func (eng *Engine) GetTotalOrdersVolume(action OrderAction) uint64 {
	var total uint64
	eng.book.treeFor(action).Ascend(func(item btree.Item) bool {
		total += eng.book.levelFor(action, item).TotalVolume
		return true
	})
	return total
}

// levelRecords collects up to limit aggregated L2 rows from one side,
// best price first. A non-positive limit means unlimited, mirroring
// OrderBookNaiveImpl.sendL2Snapshot's sizeOffer > 0 ? sizeOffer :
// Integer.MAX_VALUE.
func (eng *Engine) levelRecords(action OrderAction, limit int32) []L2Record {
	unlimited := limit <= 0
	var records []L2Record
	eng.book.treeFor(action).Ascend(func(item btree.Item) bool {
		if !unlimited && int32(len(records)) >= limit {
			return false
		}
		level := eng.book.levelFor(action, item)
		records = append(records, L2Record{
			Price:     level.Price,
			Volume:    level.TotalVolume,
			NumOrders: int32(level.NumOrders),
		})
		return true
	})
	return records
}

// SendL2Snapshot writes up to limit rows from each side, best price
// first, followed by the row counts and the trailing result word. A
// non-positive limit means unlimited — never an error. Grounded on
// OrderBookNaiveImpl.sendL2Snapshot.
func (eng *Engine) SendL2Snapshot(limit int32, em *emitter) {
	asks := eng.levelRecords(ActionAsk, limit)
	bids := eng.levelRecords(ActionBid, limit)

	for _, rec := range asks {
		em.appendL2Record(rec)
	}
	for _, rec := range bids {
		em.appendL2Record(rec)
	}
	em.w.AppendInt32(int32(len(asks)))
	em.w.AppendInt32(int32(len(bids)))
	em.fillResultCode(ResultSuccess, false, ActionAsk, false)
}

// VerifyInternalState checks every bucket's aggregate-volume invariant
// and that the book is never left crossed (best bid >= best ask) once
// a command settles. Grounded on OrderBookNaiveImpl.verifyInternalState.
func (eng *Engine) VerifyInternalState() error {
	var fault error
	check := func(action OrderAction) {
		eng.book.treeFor(action).Ascend(func(item btree.Item) bool {
			if err := eng.book.levelFor(action, item).Validate(); err != nil && fault == nil {
				fault = err
			}
			return fault == nil
		})
	}
	check(ActionAsk)
	check(ActionBid)
	if fault != nil {
		return fault
	}

	askPrice, hasAsk, bidPrice, hasBid := eng.book.bestPrices()
	if hasAsk && hasBid && bidPrice >= askPrice {
		return &EngineFault{Reason: "book left crossed: best bid >= best ask"}
	}
	return nil
}

// StateHash combines the ask-side stream hash, bid-side stream hash,
// and the symbol's own hash using the same h*31+x recurrence
// java.util.Objects.hash(a, b, c) performs internally, seeded at 1.
// Grounded on IOrderBook's default stateHash() method.
func (eng *Engine) StateHash() int32 {
	askHash := eng.streamHash(ActionAsk)
	bidHash := eng.streamHash(ActionBid)
	symbolHash := eng.symbol.StateHash()

	h := int32(1)
	h = h*31 + askHash
	h = h*31 + bidHash
	h = h*31 + symbolHash
	return h
}

// streamHash folds every resting order's own StateHash, best price
// first within the side, FIFO order within a price level. Grounded on
// IOrderBook's stateHashStream helper.
func (eng *Engine) streamHash(action OrderAction) int32 {
	h := int32(1)
	eng.book.treeFor(action).Ascend(func(item btree.Item) bool {
		eng.book.levelFor(action, item).ForEach(func(o *RestingOrder) {
			h = h*31 + o.StateHash()
		})
		return true
	})
	return h
}
