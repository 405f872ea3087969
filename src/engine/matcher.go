package engine

import (
	"github.com/rs/zerolog"
)

// Engine is the single-symbol matching core, spec.md §1/§5. It holds no
// mutex and performs no I/O of its own; src/runtime serializes commands
// for a given symbol onto one goroutine before calling into it.
type Engine struct {
	symbol SymbolSpec
	book   *book
	log    zerolog.Logger
}

// NewEngine constructs an empty book for symbol.
func NewEngine(symbol SymbolSpec, log zerolog.Logger) *Engine {
	return &Engine{
		symbol: symbol,
		book:   newBook(),
		log:    log.With().Bool("exchangeType", symbol.IsExchangeType()).Logger(),
	}
}

// PlaceCommand is the decoded form of a PLACE_ORDER wire command,
// spec.md §6.1.
type PlaceCommand struct {
	UID             uint64
	OrderID         uint64
	Price           int64
	ReserveBidPrice int64
	Size            uint64
	UserCookie      int32
	Action          OrderAction
	Type            OrderType
}

// Place dispatches cmd to one of the five matching flows and writes
// trade/reduce events plus the packed result word through em. An
// unsupported order type never reaches the point of writing a result
// word at all — it is the same fatal tier as a FOK invariant violation
// (spec.md §7) and is returned as an error instead, mirroring
// OrderBookNaiveImpl.newOrder's default: throw new
// IllegalStateException(...). Grounded on OrderBookNaiveImpl.newOrder's
// dispatch and the naive impl's five flow methods.
func (eng *Engine) Place(cmd PlaceCommand, timestamp int64, em *emitter) error {
	switch cmd.Type {
	case OrderTypeGTC:
		eng.placeGTC(cmd, timestamp, em)
		return nil
	case OrderTypeIOC:
		eng.placeIOC(cmd, timestamp, em)
		return nil
	case OrderTypeIOCBudget:
		eng.placeIOCBudget(cmd, timestamp, em)
		return nil
	case OrderTypeFOK:
		return eng.placeFOK(cmd, timestamp, em)
	case OrderTypeFOKBudget:
		return eng.placeFOKBudget(cmd, timestamp, em)
	default:
		return &EngineFault{Reason: "unsupported order type"}
	}
}

// placeGTC matches against the opposite side up to cmd.Price, then
// rests any remainder on the book. Grounded on newOrderPlaceGtc.
//
// A duplicate OrderID is only a problem once there is a remainder left
// to rest: the pre-existing resting order already occupies that id's
// slot in the index, so the remainder can't be inserted without
// clobbering it. Rather than reject the whole command up front (which
// would also undo matches that already happened), the trades already
// made are honored and the unmatched remainder is reported as a reduce
// event instead of rested, leaving the pre-existing order untouched.
// spec.md §4.5.2/§8.
func (eng *Engine) placeGTC(cmd PlaceCommand, timestamp int64, em *emitter) {
	matched := eng.tryMatchInstantly(cmd.Action, cmd.Size, cmd.ReserveBidPrice, cmd.Price, false, 0, false, em)
	left := cmd.Size - matched

	completed := left == 0
	if !completed {
		if _, exists := eng.book.orderIndex[cmd.OrderID]; exists {
			eng.log.Warn().Uint64("orderId", cmd.OrderID).Uint64("reducedVolume", left).Msg("duplicate order id, unmatched remainder not placed")
			em.appendReduce(ReduceEvent{
				Price:           cmd.Price,
				ReserveBidPrice: cmd.ReserveBidPrice,
				ReducedVolume:   left,
			})
			em.fillResultCode(ResultSuccess, false, cmd.Action, true)
			return
		}

		order := &RestingOrder{
			OrderID:         cmd.OrderID,
			UID:             cmd.UID,
			Action:          cmd.Action,
			Price:           cmd.Price,
			ReserveBidPrice: cmd.ReserveBidPrice,
			Size:            cmd.Size,
			Filled:          matched,
			Timestamp:       timestamp,
		}
		level := eng.book.getOrCreateLevel(cmd.Action, cmd.Price)
		level.Put(order)
		eng.book.orderIndex[cmd.OrderID] = order
	}

	em.fillResultCode(ResultSuccess, completed, cmd.Action, false)
}

// placeIOC matches up to cmd.Price; any unfilled remainder is
// discarded, reported through one reduce event. Grounded on
// newOrderMatchIoc.
func (eng *Engine) placeIOC(cmd PlaceCommand, timestamp int64, em *emitter) {
	matched := eng.tryMatchInstantly(cmd.Action, cmd.Size, cmd.ReserveBidPrice, cmd.Price, false, 0, false, em)
	eng.finishKillRemainder(cmd, matched, em)
}

// placeIOCBudget walks the opposite side unrestricted by price,
// best-price-first, clamping quantity per level so cumulative notional
// never exceeds cmd.Price used as a ceiling. Unfilled remainder is
// discarded. Resolved open question, SPEC_FULL.md §6.2 (the naive
// reference implementation throws IllegalStateException here).
func (eng *Engine) placeIOCBudget(cmd PlaceCommand, timestamp int64, em *emitter) {
	matched := eng.tryMatchInstantly(cmd.Action, cmd.Size, cmd.ReserveBidPrice, 0, true, cmd.Price, true, em)
	eng.finishKillRemainder(cmd, matched, em)
}

// placeFOK matches the full size against the price-bounded subtree or
// not at all. Grounded on newOrderMatchFokBudget's peek-then-commit
// shape, generalized to a price cap instead of a budget cap (resolved
// open question, SPEC_FULL.md §6.2).
func (eng *Engine) placeFOK(cmd PlaceCommand, timestamp int64, em *emitter) error {
	if !eng.peekFillable(cmd.Action, cmd.Price, false, cmd.Size, false, 0) {
		em.appendReduce(ReduceEvent{
			Price:           cmd.Price,
			ReserveBidPrice: cmd.ReserveBidPrice,
			ReducedVolume:   cmd.Size,
		})
		em.fillResultCode(ResultSuccess, false, cmd.Action, true)
		return nil
	}
	matched := eng.tryMatchInstantly(cmd.Action, cmd.Size, cmd.ReserveBidPrice, cmd.Price, false, 0, false, em)
	if matched != cmd.Size {
		return &EngineFault{Reason: "FOK matched less than the fillability check promised"}
	}
	em.fillResultCode(ResultSuccess, true, cmd.Action, false)
	return nil
}

// placeFOKBudget peeks notional feasibility across the full opposite
// side before committing, as newOrderMatchFokBudget does: a BID fills
// only if buying the full size from the best asks costs at most
// cmd.Price in total, an ASK only if selling the full size into the
// best bids brings in at least cmd.Price.
func (eng *Engine) placeFOKBudget(cmd PlaceCommand, timestamp int64, em *emitter) error {
	fillable, hasBudget := eng.peekFillable(cmd.Action, 0, true, cmd.Size, true, cmd.Price), true
	if cmd.Action == ActionAsk {
		var acc uint64
		var proceeds int64
		eng.book.ascendMatching(cmd.Action, 0, true, func(level *PriceLevel) bool {
			take := level.TotalVolume
			if cmd.Size-acc < take {
				take = cmd.Size - acc
			}
			acc += take
			proceeds += int64(take) * level.Price
			return acc < cmd.Size
		})
		fillable, hasBudget = acc == cmd.Size && proceeds >= cmd.Price, false
	}
	if !fillable {
		em.appendReduce(ReduceEvent{
			Price:           cmd.Price,
			ReserveBidPrice: cmd.ReserveBidPrice,
			ReducedVolume:   cmd.Size,
		})
		em.fillResultCode(ResultSuccess, false, cmd.Action, true)
		return nil
	}
	matched := eng.tryMatchInstantly(cmd.Action, cmd.Size, cmd.ReserveBidPrice, 0, true, cmd.Price, hasBudget, em)
	if matched != cmd.Size {
		return &EngineFault{Reason: "FOK_BUDGET matched less than the fillability check promised"}
	}
	em.fillResultCode(ResultSuccess, true, cmd.Action, false)
	return nil
}

// finishKillRemainder reports the unfilled remainder of an IOC-family
// order as a single reduce event, mirroring the trailing reduce event
// shape spec.md §4.4 defines for partially-killed taker orders.
func (eng *Engine) finishKillRemainder(cmd PlaceCommand, matched uint64, em *emitter) {
	remainder := cmd.Size - matched
	completed := remainder == 0
	if !completed {
		em.appendReduce(ReduceEvent{
			Price:           cmd.Price,
			ReserveBidPrice: cmd.ReserveBidPrice,
			ReducedVolume:   remainder,
		})
	}
	em.fillResultCode(ResultSuccess, completed, cmd.Action, !completed)
}

// tryMatchInstantly walks the opposite side of action best-price-first,
// consuming resting liquidity into the taker. limitPrice/unrestricted
// gate by price; hasBudget/budgetLimit additionally clamp each level's
// quantity so cumulative notional never exceeds budgetLimit. Returns
// the quantity matched. Grounded on OrderBookNaiveImpl.tryMatchInstantly
// and subtreeForMatching.
func (eng *Engine) tryMatchInstantly(action OrderAction, size uint64, reserveBidPrice int64, limitPrice int64, unrestricted bool, budgetLimit int64, hasBudget bool, em *emitter) uint64 {
	remaining := size
	budgetLeft := budgetLimit
	oppositeAction := ActionBid
	if action == ActionBid {
		oppositeAction = ActionAsk
	}
	var emptied []*PriceLevel

	eng.book.ascendMatching(action, limitPrice, unrestricted, func(level *PriceLevel) bool {
		if remaining == 0 {
			return false
		}
		takeQty := remaining
		if hasBudget {
			if level.Price <= 0 || budgetLeft <= 0 {
				return false
			}
			affordable := uint64(budgetLeft / level.Price)
			if affordable < takeQty {
				takeQty = affordable
			}
			if takeQty == 0 {
				return false
			}
		}

		matchedHere := level.Match(takeQty, reserveBidPrice, func(orderID uint64) {
			delete(eng.book.orderIndex, orderID)
		}, func(t TradeEvent) {
			em.appendTrade(t)
		})

		remaining -= matchedHere
		if hasBudget {
			budgetLeft -= int64(matchedHere) * level.Price
		}
		if level.TotalVolume == 0 {
			emptied = append(emptied, level)
		}
		return remaining > 0
	})

	for _, level := range emptied {
		eng.book.dropLevelIfEmpty(oppositeAction, level)
	}
	return size - remaining
}

// peekFillable reports whether size can be fully satisfied from the
// subtree ascendMatching would walk, without mutating the book.
// Grounded on checkBudgetToFill/subtreeForMatching.
func (eng *Engine) peekFillable(action OrderAction, limitPrice int64, unrestricted bool, size uint64, hasBudget bool, budgetLimit int64) bool {
	var acc uint64
	budgetLeft := budgetLimit
	fillable := false

	eng.book.ascendMatching(action, limitPrice, unrestricted, func(level *PriceLevel) bool {
		avail := level.TotalVolume
		if hasBudget {
			if level.Price <= 0 || budgetLeft <= 0 {
				return false
			}
			affordable := uint64(budgetLeft / level.Price)
			if affordable < avail {
				avail = affordable
			}
			budgetLeft -= int64(avail) * level.Price
		}
		acc += avail
		if acc >= size {
			fillable = true
			return false
		}
		return true
	})

	return fillable
}
