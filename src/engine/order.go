package engine

// RestingOrder is a resting order held inside some PriceLevel and
// indexed by OrderID in the engine's order index. Remaining = Size -
// Filled is invariant > 0 for as long as the order is present anywhere.
type RestingOrder struct {
	OrderID         uint64
	UID             uint64
	Action          OrderAction
	Price           int64
	ReserveBidPrice int64
	Size            uint64
	Filled          uint64
	Timestamp       int64
}

// Remaining is the unmatched quantity still resting.
func (o *RestingOrder) Remaining() uint64 {
	return o.Size - o.Filled
}

// StateHash combines this order's fields deterministically. The
// original Java IOrder.stateHash() implementation was not part of the
// retrieved source; this field set (order id, uid, price, reserve bid
// price, size, filled, timestamp) and the h*31+x recurrence are this
// module's own documented choice (DESIGN.md), consistent with the
// combine rule spec.md §9 specifies for the rest of the state hash.
func (o *RestingOrder) StateHash() int32 {
	h := int32(1)
	h = h*31 + int32(o.OrderID) + int32(o.OrderID>>32)
	h = h*31 + int32(o.UID) + int32(o.UID>>32)
	h = h*31 + int32(o.Price) + int32(o.Price>>32)
	h = h*31 + int32(o.ReserveBidPrice) + int32(o.ReserveBidPrice>>32)
	h = h*31 + int32(o.Size) + int32(o.Size>>32)
	h = h*31 + int32(o.Filled) + int32(o.Filled>>32)
	h = h*31 + int32(o.Timestamp) + int32(o.Timestamp>>32)
	return h
}
