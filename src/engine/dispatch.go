package engine

import "limitcore/src/wire"

// Execute decodes the command at offset in buf per its opcode and
// returns the response bytes: a small header (command type, uid, order
// id, and — for PLACE — the user cookie) followed by whatever
// trade/reduce/L2 events the command produced and the trailing packed
// result word. Grounded on ResponseDecoder's header-then-tail layout.
func (eng *Engine) Execute(opcode Opcode, buf []byte, offset int, timestamp int64) ([]byte, error) {
	r := wire.NewReader(buf, offset)
	w := wire.NewWriter(64)
	em := newEmitter(w)

	switch opcode {
	case CommandPlaceOrder:
		cmd := PlaceCommand{
			UID:             r.GetUint64(offset + placeOffsetUID),
			OrderID:         r.GetUint64(offset + placeOffsetOrderID),
			Price:           r.GetInt64(offset + placeOffsetPrice),
			ReserveBidPrice: r.GetInt64(offset + placeOffsetReserveBidPrice),
			Size:            r.GetUint64(offset + placeOffsetSize),
			UserCookie:      r.GetInt32(offset + placeOffsetUserCookie),
			Action:          OrderAction(r.GetByte(offset + placeOffsetAction)),
			Type:            OrderType(r.GetByte(offset + placeOffsetType)),
		}
		w.AppendByte(byte(CommandPlaceOrder))
		w.AppendUint64(cmd.UID)
		w.AppendUint64(cmd.OrderID)
		w.AppendInt32(cmd.UserCookie)
		if err := eng.Place(cmd, timestamp, em); err != nil {
			return nil, err
		}

	case CommandCancelOrder:
		uid := r.GetUint64(offset + cancelOffsetUID)
		orderID := r.GetUint64(offset + cancelOffsetOrderID)
		w.AppendByte(byte(CommandCancelOrder))
		w.AppendUint64(uid)
		w.AppendUint64(orderID)
		eng.CancelOrder(uid, orderID, em)

	case CommandReduceOrder:
		uid := r.GetUint64(offset + reduceOffsetUID)
		orderID := r.GetUint64(offset + reduceOffsetOrderID)
		delta := r.GetUint64(offset + reduceOffsetSize)
		w.AppendByte(byte(CommandReduceOrder))
		w.AppendUint64(uid)
		w.AppendUint64(orderID)
		eng.ReduceOrder(uid, orderID, delta, em)

	case CommandMoveOrder:
		uid := r.GetUint64(offset + moveOffsetUID)
		orderID := r.GetUint64(offset + moveOffsetOrderID)
		newPrice := r.GetInt64(offset + moveOffsetPrice)
		w.AppendByte(byte(CommandMoveOrder))
		w.AppendUint64(uid)
		w.AppendUint64(orderID)
		eng.MoveOrder(uid, orderID, newPrice, em)

	case QueryOrderBook:
		limit := r.GetInt16(offset)
		w.AppendByte(byte(QueryOrderBook))
		eng.SendL2Snapshot(int32(limit), em)

	default:
		return nil, &EngineFault{Reason: "unsupported opcode"}
	}

	return w.Bytes(), nil
}
