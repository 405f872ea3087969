package engine

import "limitcore/src/wire"

// TradeEvent is emitted once per maker consumed during a match, partial
// or full. Wire layout, spec.md §4.4: 41 bytes (five 8-byte fields plus
// a 1-byte maker-completed flag).
type TradeEvent struct {
	MakerOrderID    uint64
	MakerUID        uint64
	Price           int64
	ReserveBidPrice int64
	TradeVolume     uint64
	MakerCompleted  bool
}

// ReduceEvent is emitted at most once per command. Wire layout: 24 bytes.
type ReduceEvent struct {
	Price           int64
	ReserveBidPrice int64
	ReducedVolume   uint64
}

// L2Record is one aggregated depth row. Wire layout: 20 bytes.
type L2Record struct {
	Price     int64
	Volume    uint64
	NumOrders int32
}

// emitter writes trade/reduce/L2 events and the packed trailing result
// word directly into the response writer, spec.md §4.4.
type emitter struct {
	w *wire.Writer
}

func newEmitter(w *wire.Writer) *emitter {
	return &emitter{w: w}
}

func (e *emitter) appendTrade(t TradeEvent) {
	e.w.AppendUint64(t.MakerOrderID)
	e.w.AppendUint64(t.MakerUID)
	e.w.AppendInt64(t.Price)
	e.w.AppendInt64(t.ReserveBidPrice)
	e.w.AppendUint64(t.TradeVolume)
	if t.MakerCompleted {
		e.w.AppendByte(1)
	} else {
		e.w.AppendByte(0)
	}
}

func (e *emitter) appendReduce(r ReduceEvent) {
	e.w.AppendInt64(r.Price)
	e.w.AppendInt64(r.ReserveBidPrice)
	e.w.AppendUint64(r.ReducedVolume)
}

func (e *emitter) appendL2Record(rec L2Record) {
	e.w.AppendInt64(rec.Price)
	e.w.AppendUint64(rec.Volume)
	e.w.AppendInt32(rec.NumOrders)
}

// fillResultCode appends the packed 16-bit trailing result word: bits
// [0..12) = resultCode, bit 12 = taker completed, bit 13 = taker action
// is BID, bit 14 = reduce event present.
func (e *emitter) fillResultCode(code ResultCode, takerCompleted bool, action OrderAction, reducePresent bool) {
	word := int16(code) & resultMask
	if takerCompleted {
		word |= resultOffsetTakerCompletedFlag
	}
	if action == ActionBid {
		word |= resultOffsetTakerActionBidFlag
	}
	if reducePresent {
		word |= resultOffsetReduceEventFlag
	}
	e.w.AppendInt16(word)
}
