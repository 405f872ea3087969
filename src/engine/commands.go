package engine

// CancelOrder removes a resting order outright. Grounded on
// OrderBookNaiveImpl.cancelOrder.
func (eng *Engine) CancelOrder(uid, orderID uint64, em *emitter) {
	order, ok := eng.book.orderIndex[orderID]
	if !ok || order.UID != uid {
		em.fillResultCode(ResultUnknownOrderID, false, ActionAsk, false)
		return
	}

	level, ok := eng.book.getLevel(order.Action, order.Price)
	if !ok {
		em.fillResultCode(ResultUnknownOrderID, false, order.Action, false)
		return
	}
	level.Remove(orderID, uid)
	eng.book.dropLevelIfEmpty(order.Action, level)
	delete(eng.book.orderIndex, orderID)

	em.appendReduce(ReduceEvent{
		Price:           order.Price,
		ReserveBidPrice: order.ReserveBidPrice,
		ReducedVolume:   order.Remaining(),
	})
	em.fillResultCode(ResultSuccess, true, order.Action, true)
}

// ReduceOrder shrinks a resting order's remaining size in place by
// delta, without moving it in FIFO order. A delta that would reduce an
// order to zero or below is rejected; cancel the order instead.
// Grounded on OrderBookNaiveImpl.reduceOrder.
func (eng *Engine) ReduceOrder(uid, orderID, delta uint64, em *emitter) {
	order, ok := eng.book.orderIndex[orderID]
	if !ok || order.UID != uid {
		em.fillResultCode(ResultUnknownOrderID, false, ActionAsk, false)
		return
	}
	if delta == 0 || delta >= order.Remaining() {
		em.fillResultCode(ResultIncorrectReduceSize, false, order.Action, false)
		return
	}

	level, ok := eng.book.getLevel(order.Action, order.Price)
	if !ok {
		em.fillResultCode(ResultUnknownOrderID, false, order.Action, false)
		return
	}

	order.Size -= delta
	level.ReduceSize(delta)

	em.appendReduce(ReduceEvent{
		Price:           order.Price,
		ReserveBidPrice: order.ReserveBidPrice,
		ReducedVolume:   delta,
	})
	em.fillResultCode(ResultSuccess, false, order.Action, true)
}

// MoveOrder relocates a resting order to a new price, losing its time
// priority at the new level (it joins the new bucket's FIFO tail). A
// bid order may not move to a price above its own reserve bid price —
// the risk check OrderBookNaiveImpl.moveOrder enforces before allowing
// the move. Ask orders have no such ceiling; spec.md defines the
// reserve bid price as a BID-side risk control only.
//
// After relocating, the order's remaining size is always tried against
// the opposite side at the new price — a move into crossing territory
// can fully or partially fill it immediately, exactly as
// OrderBookNaiveImpl.moveOrder does, instead of silently resting an
// order that would leave the book crossed.
func (eng *Engine) MoveOrder(uid, orderID uint64, newPrice int64, em *emitter) {
	order, ok := eng.book.orderIndex[orderID]
	if !ok || order.UID != uid {
		em.fillResultCode(ResultUnknownOrderID, false, ActionAsk, false)
		return
	}
	if order.Action == ActionBid && newPrice > order.ReserveBidPrice {
		em.fillResultCode(ResultMoveFailedPriceOverRiskLimit, false, order.Action, false)
		return
	}
	if order.Price == newPrice {
		em.fillResultCode(ResultSuccess, false, order.Action, false)
		return
	}

	oldLevel, ok := eng.book.getLevel(order.Action, order.Price)
	if !ok {
		em.fillResultCode(ResultUnknownOrderID, false, order.Action, false)
		return
	}
	moved, _ := oldLevel.Remove(orderID, uid)
	eng.book.dropLevelIfEmpty(order.Action, oldLevel)

	moved.Price = newPrice
	delete(eng.book.orderIndex, orderID)

	matched := eng.tryMatchInstantly(moved.Action, moved.Remaining(), moved.ReserveBidPrice, newPrice, false, 0, false, em)
	moved.Filled += matched
	completed := moved.Filled == moved.Size

	if !completed {
		newLevel := eng.book.getOrCreateLevel(order.Action, newPrice)
		newLevel.Put(moved)
		eng.book.orderIndex[orderID] = moved
	}

	em.fillResultCode(ResultSuccess, completed, order.Action, false)
}
