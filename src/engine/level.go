package engine

import "container/list"

// PriceLevel is the FIFO bucket of resting orders at one price on one
// side. TotalVolume and NumOrders are maintained incrementally so that
// budget/volume feasibility checks never have to walk the FIFO.
type PriceLevel struct {
	Price       int64
	TotalVolume uint64
	NumOrders   int

	fifo  *list.List
	index map[uint64]*list.Element
}

func newPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{
		Price: price,
		fifo:  list.New(),
		index: make(map[uint64]*list.Element),
	}
}

// Put appends an order to the FIFO tail. Precondition: order.Remaining()
// > 0 and order.Price == level.Price.
func (l *PriceLevel) Put(o *RestingOrder) {
	elem := l.fifo.PushBack(o)
	l.index[o.OrderID] = elem
	l.TotalVolume += o.Remaining()
	l.NumOrders++
}

// Remove removes the specifically identified order, but only if uid
// matches the stored order's uid. Returns (nil, false) otherwise,
// without mutating the bucket.
func (l *PriceLevel) Remove(orderID, uid uint64) (*RestingOrder, bool) {
	elem, ok := l.index[orderID]
	if !ok {
		return nil, false
	}
	order := elem.Value.(*RestingOrder)
	if order.UID != uid {
		return nil, false
	}
	l.fifo.Remove(elem)
	delete(l.index, orderID)
	l.TotalVolume -= order.Remaining()
	l.NumOrders--
	return order, true
}

// ReduceSize trims total volume in place, used when an order's
// remaining size is shrunk without leaving the bucket (REDUCE command).
func (l *PriceLevel) ReduceSize(delta uint64) {
	l.TotalVolume -= delta
}

// Match consumes makers from the FIFO head until either the bucket
// empties or the taker's remaining size is satisfied. Every maker
// touched emits exactly one trade event via emit, in FIFO order. Makers
// fully filled are popped and reported through onRemove so the caller
// can keep its order index consistent.
func (l *PriceLevel) Match(takerRemaining uint64, takerReserveBidPrice int64, onRemove func(orderID uint64), emit func(TradeEvent)) uint64 {
	var matched uint64

	for takerRemaining > matched {
		front := l.fifo.Front()
		if front == nil {
			break
		}
		maker := front.Value.(*RestingOrder)

		lotsLeft := takerRemaining - matched
		makerRemaining := maker.Remaining()
		tradeVolume := makerRemaining
		if lotsLeft < tradeVolume {
			tradeVolume = lotsLeft
		}

		maker.Filled += tradeVolume
		l.TotalVolume -= tradeVolume
		matched += tradeVolume

		makerCompleted := maker.Remaining() == 0

		emit(TradeEvent{
			MakerOrderID:    maker.OrderID,
			MakerUID:        maker.UID,
			Price:           l.Price,
			ReserveBidPrice: takerReserveBidPrice,
			TradeVolume:     tradeVolume,
			MakerCompleted:  makerCompleted,
		})

		if makerCompleted {
			l.fifo.Remove(front)
			delete(l.index, maker.OrderID)
			l.NumOrders--
			onRemove(maker.OrderID)
		}
	}

	return matched
}

// ForEach visits every resting order in FIFO order without mutating the
// bucket.
func (l *PriceLevel) ForEach(fn func(*RestingOrder)) {
	for e := l.fifo.Front(); e != nil; e = e.Next() {
		fn(e.Value.(*RestingOrder))
	}
}

// Validate checks this bucket's invariants: aggregate volume equals the
// sum of each order's remaining size, and the order count matches.
func (l *PriceLevel) Validate() error {
	var sum uint64
	var count int
	l.ForEach(func(o *RestingOrder) {
		sum += o.Remaining()
		count++
	})
	if sum != l.TotalVolume {
		return &EngineFault{Reason: "bucket total_volume mismatch"}
	}
	if count != l.NumOrders {
		return &EngineFault{Reason: "bucket num_orders mismatch"}
	}
	if sum == 0 {
		return &EngineFault{Reason: "empty bucket left in book"}
	}
	return nil
}
