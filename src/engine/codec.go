package engine

import "limitcore/src/wire"

// This file is the public encode/decode surface external callers (the
// HTTP layer, tests) use to build command bodies for Execute and parse
// the bytes it returns, mirroring ResponseDecoder's header-then-seek
// decoding style without duplicating Execute's internal offsets.

// EncodePlaceCommand serializes cmd into the PlaceCommandSize-byte body
// Execute expects at offset 0 for CommandPlaceOrder.
func EncodePlaceCommand(cmd PlaceCommand) []byte {
	w := wire.NewWriter(PlaceCommandSize)
	w.AppendUint64(cmd.UID)
	w.AppendUint64(cmd.OrderID)
	w.AppendInt64(cmd.Price)
	w.AppendInt64(cmd.ReserveBidPrice)
	w.AppendUint64(cmd.Size)
	w.AppendInt32(cmd.UserCookie)
	w.AppendByte(byte(cmd.Action))
	w.AppendByte(byte(cmd.Type))
	return w.Bytes()
}

// EncodeCancelCommand serializes a CANCEL_ORDER body.
func EncodeCancelCommand(uid, orderID uint64) []byte {
	w := wire.NewWriter(CancelCommandSize)
	w.AppendUint64(uid)
	w.AppendUint64(orderID)
	return w.Bytes()
}

// EncodeReduceCommand serializes a REDUCE_ORDER body.
func EncodeReduceCommand(uid, orderID, delta uint64) []byte {
	w := wire.NewWriter(ReduceCommandSize)
	w.AppendUint64(uid)
	w.AppendUint64(orderID)
	w.AppendUint64(delta)
	return w.Bytes()
}

// EncodeMoveCommand serializes a MOVE_ORDER body.
func EncodeMoveCommand(uid, orderID uint64, newPrice int64) []byte {
	w := wire.NewWriter(MoveCommandSize)
	w.AppendUint64(uid)
	w.AppendUint64(orderID)
	w.AppendInt64(newPrice)
	return w.Bytes()
}

// EncodeQueryCommand serializes a QUERY_ORDER_BOOK body: a single
// int16 limit applied to both sides (spec.md §6, "limit:2"). A
// non-positive limit means unlimited.
func EncodeQueryCommand(limit int16) []byte {
	w := wire.NewWriter(QueryCommandSize)
	w.AppendInt16(limit)
	return w.Bytes()
}

const (
	tradeEventSize  = 8 + 8 + 8 + 8 + 8 + 1
	reduceEventSize = 8 + 8 + 8
	l2RecordSize    = 8 + 8 + 4
	resultWordSize  = 2
)

// decodeResultWord unpacks the trailing 16-bit word Execute always
// writes last.
func decodeResultWord(word int16) (code ResultCode, takerCompleted, takerIsBid, reducePresent bool) {
	code = ResultCode(word & resultMask)
	takerCompleted = word&resultOffsetTakerCompletedFlag != 0
	takerIsBid = word&resultOffsetTakerActionBidFlag != 0
	reducePresent = word&resultOffsetReduceEventFlag != 0
	return
}

// CommandResult is the decoded form of a CANCEL/REDUCE/MOVE response.
type CommandResult struct {
	UID            uint64
	OrderID        uint64
	Code           ResultCode
	TakerCompleted bool
	Reduce         *ReduceEvent
}

// DecodeCommandResponse decodes a CANCEL_ORDER/REDUCE_ORDER/MOVE_ORDER
// response: opcode(1) + uid(8) + orderId(8) header, zero or more trade
// events (MOVE only; skipped, not decoded), an optional trailing reduce
// event, then the trailing result word.
func DecodeCommandResponse(data []byte) CommandResult {
	r := wire.NewReader(data, 0)
	_ = r.ReadByte()
	res := CommandResult{
		UID:     r.ReadUint64(),
		OrderID: r.ReadUint64(),
	}

	word := wire.NewReader(data, 0).GetInt16(len(data) - resultWordSize)
	code, takerCompleted, _, reducePresent := decodeResultWord(word)
	res.Code = code
	res.TakerCompleted = takerCompleted

	if reducePresent {
		reduceStart := len(data) - resultWordSize - reduceEventSize
		rr := wire.NewReader(data, reduceStart)
		res.Reduce = &ReduceEvent{
			Price:           rr.GetInt64(reduceStart),
			ReserveBidPrice: rr.GetInt64(reduceStart + 8),
			ReducedVolume:   rr.GetUint64(reduceStart + 16),
		}
	}
	return res
}

// PlaceResult is the decoded form of a PLACE_ORDER response.
type PlaceResult struct {
	UID            uint64
	OrderID        uint64
	UserCookie     int32
	Code           ResultCode
	TakerCompleted bool
	TakerIsBid     bool
	Trades         []TradeEvent
	Reduce         *ReduceEvent
}

// DecodePlaceResponse decodes a PLACE_ORDER response: opcode(1) +
// uid(8) + orderId(8) + userCookie(4) header, zero or more trade
// events, an optional reduce event, then the trailing result word.
// Grounded on ResponseDecoder.java's seek-from-the-end strategy.
func DecodePlaceResponse(data []byte) PlaceResult {
	r := wire.NewReader(data, 0)
	_ = r.ReadByte()
	res := PlaceResult{
		UID:     r.ReadUint64(),
		OrderID: r.ReadUint64(),
	}
	res.UserCookie = r.ReadInt32()
	headerEnd := 1 + 8 + 8 + 4

	word := wire.NewReader(data, 0).GetInt16(len(data) - resultWordSize)
	code, takerCompleted, takerIsBid, reducePresent := decodeResultWord(word)
	res.Code = code
	res.TakerCompleted = takerCompleted
	res.TakerIsBid = takerIsBid

	tradesEnd := len(data) - resultWordSize
	if reducePresent {
		reduceStart := tradesEnd - reduceEventSize
		rr := wire.NewReader(data, reduceStart)
		res.Reduce = &ReduceEvent{
			Price:           rr.GetInt64(reduceStart),
			ReserveBidPrice: rr.GetInt64(reduceStart + 8),
			ReducedVolume:   rr.GetUint64(reduceStart + 16),
		}
		tradesEnd = reduceStart
	}

	for off := headerEnd; off+tradeEventSize <= tradesEnd; off += tradeEventSize {
		tr := wire.NewReader(data, off)
		res.Trades = append(res.Trades, TradeEvent{
			MakerOrderID:    tr.GetUint64(off),
			MakerUID:        tr.GetUint64(off + 8),
			Price:           tr.GetInt64(off + 16),
			ReserveBidPrice: tr.GetInt64(off + 24),
			TradeVolume:     tr.GetUint64(off + 32),
			MakerCompleted:  tr.GetByte(off+40) != 0,
		})
	}
	return res
}

// L2SnapshotResult is the decoded form of a QUERY_ORDER_BOOK response.
type L2SnapshotResult struct {
	Code ResultCode
	Asks []L2Record
	Bids []L2Record
}

// DecodeL2SnapshotResponse decodes a QUERY_ORDER_BOOK response: an
// opcode(1) header, then askCount rows, then bidCount rows, then
// int32 askCount + int32 bidCount, then the trailing result word.
func DecodeL2SnapshotResponse(data []byte) L2SnapshotResult {
	word := wire.NewReader(data, 0).GetInt16(len(data) - resultWordSize)
	code, _, _, _ := decodeResultWord(word)

	countsStart := len(data) - resultWordSize - 8
	r := wire.NewReader(data, 0)
	askCount := int(r.GetInt32(countsStart))
	bidCount := int(r.GetInt32(countsStart + 4))

	off := 1
	asks := make([]L2Record, 0, askCount)
	for i := 0; i < askCount; i++ {
		asks = append(asks, L2Record{
			Price:     r.GetInt64(off),
			Volume:    r.GetUint64(off + 8),
			NumOrders: r.GetInt32(off + 16),
		})
		off += l2RecordSize
	}
	bids := make([]L2Record, 0, bidCount)
	for i := 0; i < bidCount; i++ {
		bids = append(bids, L2Record{
			Price:     r.GetInt64(off),
			Volume:    r.GetUint64(off + 8),
			NumOrders: r.GetInt32(off + 16),
		})
		off += l2RecordSize
	}

	return L2SnapshotResult{Code: code, Asks: asks, Bids: bids}
}
