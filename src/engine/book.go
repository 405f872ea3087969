package engine

import "github.com/google/btree"

// askLevelItem orders ask buckets ascending (best ask = smallest price).
type askLevelItem struct {
	level *PriceLevel
}

func (a *askLevelItem) Less(than btree.Item) bool {
	return a.level.Price < than.(*askLevelItem).level.Price
}

// bidLevelItem orders bid buckets descending (best bid = largest price).
type bidLevelItem struct {
	level *PriceLevel
}

func (b *bidLevelItem) Less(than btree.Item) bool {
	return b.level.Price > than.(*bidLevelItem).level.Price
}

// book holds the two ordered-by-price sides plus the flat order index,
// spec.md §4.3. Ascend on either tree already visits levels in
// best-price-first order thanks to the side-specific comparator above,
// so matching code never needs a separate "best entry" helper.
type book struct {
	asks       *btree.BTree
	bids       *btree.BTree
	orderIndex map[uint64]*RestingOrder
}

func newBook() *book {
	return &book{
		asks:       btree.New(32),
		bids:       btree.New(32),
		orderIndex: make(map[uint64]*RestingOrder),
	}
}

func (b *book) treeFor(action OrderAction) *btree.BTree {
	if action == ActionAsk {
		return b.asks
	}
	return b.bids
}

func (b *book) levelFor(action OrderAction, item btree.Item) *PriceLevel {
	if action == ActionAsk {
		return item.(*askLevelItem).level
	}
	return item.(*bidLevelItem).level
}

func (b *book) wrapItem(action OrderAction, level *PriceLevel) btree.Item {
	if action == ActionAsk {
		return &askLevelItem{level: level}
	}
	return &bidLevelItem{level: level}
}

// getOrCreateLevel returns the bucket at price on the given side,
// creating an empty one on first use (spec.md §3 — "Buckets are
// created on demand at first placement").
func (b *book) getOrCreateLevel(action OrderAction, price int64) *PriceLevel {
	tree := b.treeFor(action)
	probe := b.wrapItem(action, &PriceLevel{Price: price})
	if existing := tree.Get(probe); existing != nil {
		return b.levelFor(action, existing)
	}
	level := newPriceLevel(price)
	tree.ReplaceOrInsert(b.wrapItem(action, level))
	return level
}

func (b *book) getLevel(action OrderAction, price int64) (*PriceLevel, bool) {
	tree := b.treeFor(action)
	probe := b.wrapItem(action, &PriceLevel{Price: price})
	item := tree.Get(probe)
	if item == nil {
		return nil, false
	}
	return b.levelFor(action, item), true
}

// dropLevelIfEmpty removes an empty bucket from its side. Empty buckets
// must never be left resident (spec.md §3 invariant).
func (b *book) dropLevelIfEmpty(action OrderAction, level *PriceLevel) {
	if level.TotalVolume == 0 {
		tree := b.treeFor(action)
		tree.Delete(b.wrapItem(action, level))
	}
}

// bestPrices returns (bestAsk, hasAsk, bestBid, hasBid) — used only by
// VerifyInternalState's no-locked-book check.
func (b *book) bestPrices() (askPrice int64, hasAsk bool, bidPrice int64, hasBid bool) {
	if item := b.asks.Min(); item != nil {
		askPrice, hasAsk = item.(*askLevelItem).level.Price, true
	}
	if item := b.bids.Min(); item != nil {
		bidPrice, hasBid = item.(*bidLevelItem).level.Price, true
	}
	return
}

func (b *book) bestAsk() (*PriceLevel, bool) {
	item := b.asks.Min()
	if item == nil {
		return nil, false
	}
	return item.(*askLevelItem).level, true
}

func (b *book) bestBid() (*PriceLevel, bool) {
	item := b.bids.Min()
	if item == nil {
		return nil, false
	}
	return item.(*bidLevelItem).level, true
}

// ascendMatching walks the opposite side of action, best price first,
// invoking visit for each bucket until visit returns false or the tree
// is exhausted. When unrestricted is false, iteration stops (without
// visiting) once a bucket's price is worse than limitPrice for the
// taker — the "head map inclusive of the limit price" spec.md §4.5.1
// describes.
func (b *book) ascendMatching(action OrderAction, limitPrice int64, unrestricted bool, visit func(*PriceLevel) bool) {
	oppositeAction := ActionBid
	if action == ActionBid {
		oppositeAction = ActionAsk
	}
	tree := b.treeFor(oppositeAction)

	tree.Ascend(func(item btree.Item) bool {
		level := b.levelFor(oppositeAction, item)
		if !unrestricted {
			if action == ActionAsk && level.Price < limitPrice {
				return false
			}
			if action == ActionBid && level.Price > limitPrice {
				return false
			}
		}
		return visit(level)
	})
}
