package core

// Book holds both sides of the market: two parallel arrays of
// PriceLevelQueue indexed by tick, and one BestPriceIndex per side.
type Book struct {
	maxTicks  uint32
	bidQueues []PriceLevelQueue
	askQueues []PriceLevelQueue
	bidIndex  BestPriceIndex
	askIndex  BestPriceIndex
}

func newBook(maxTicks int) *Book {
	b := &Book{
		maxTicks:  uint32(maxTicks),
		bidQueues: make([]PriceLevelQueue, maxTicks),
		askQueues: make([]PriceLevelQueue, maxTicks),
		bidIndex:  newBestPriceIndex(maxTicks),
		askIndex:  newBestPriceIndex(maxTicks),
	}
	for i := range b.bidQueues {
		b.bidQueues[i] = newPriceLevelQueue()
		b.askQueues[i] = newPriceLevelQueue()
	}
	return b
}

func (b *Book) queue(side Side, tick uint32) *PriceLevelQueue {
	if side == Buy {
		return &b.bidQueues[tick]
	}
	return &b.askQueues[tick]
}

func (b *Book) index(side Side) *BestPriceIndex {
	if side == Buy {
		return &b.bidIndex
	}
	return &b.askIndex
}

// BestBid returns the highest tick with a resting buy, or (0, false).
func (b *Book) BestBid() (uint32, bool) { return b.bidIndex.BestBid() }

// BestAsk returns the lowest tick with a resting sell, or (0, false).
func (b *Book) BestAsk() (uint32, bool) { return b.askIndex.BestAsk() }

// DepthAt reports whether side's queue at tick is non-empty, and if so, its
// head order's arena index. Exposed for external cancellation callers and
// snapshot readers; the matcher does not use it directly.
func (b *Book) DepthAt(side Side, tick uint32) (headIdx int32, ok bool) {
	q := b.queue(side, tick)
	if q.IsEmpty() {
		return noIndex, false
	}
	return q.Head(), true
}
