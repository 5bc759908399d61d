package core

// MatchingEngine drives an OrderArena, a Book, and a MatchingEngine's own
// trade counter under price-time priority. Every method must be called
// from a single goroutine; the type has no internal synchronization by
// design (spec.md §5).
type MatchingEngine struct {
	arena  *OrderArena
	book   *Book
	trades uint64

	maxTicks uint32
	fillBuf  []Fill // reused across calls to avoid per-order allocation
}

// NewMatchingEngine constructs an engine with the given order-arena
// capacity and tick-domain size. maxTicks must be a positive multiple of
// 64 and at most 4096 (single-level summary word); a wider domain would
// need a second summary level per spec.md §4.3's implementer's note, which
// this engine does not implement.
func NewMatchingEngine(maxOrders, maxTicks int) *MatchingEngine {
	if maxOrders <= 0 {
		panic("core: maxOrders must be positive")
	}
	if maxTicks <= 0 || maxTicks%64 != 0 || maxTicks > 4096 {
		panic("core: maxTicks must be a positive multiple of 64, at most 4096")
	}
	return &MatchingEngine{
		arena:    NewOrderArena(maxOrders),
		book:     newBook(maxTicks),
		maxTicks: uint32(maxTicks),
		fillBuf:  make([]Fill, 0, 16),
	}
}

// TradesExecuted returns the number of fills executed so far. It is
// incremented once per resting order touched, whether the touch is a
// partial or a full fill, and never decreases.
func (e *MatchingEngine) TradesExecuted() uint64 { return e.trades }

// BestBid returns the current best bid tick, or (0, false) if the bid side
// is empty.
func (e *MatchingEngine) BestBid() (uint32, bool) { return e.book.BestBid() }

// BestAsk returns the current best ask tick, or (0, false) if the ask side
// is empty.
func (e *MatchingEngine) BestAsk() (uint32, bool) { return e.book.BestAsk() }

// Free returns the number of unused arena slots.
func (e *MatchingEngine) Free() int { return e.arena.Free() }

// Cap returns the arena's total order capacity.
func (e *MatchingEngine) Cap() int { return e.arena.Cap() }

// ProcessNewOrder processes one inbound order end to end: it matches
// against resting liquidity under price-time priority, then rests any
// unfilled residual. price must be in [0, maxTicks) and qty must be > 0;
// violating either is a precondition violation the core does not detect
// (spec.md §7) and this method assumes never happens.
//
// The returned Fill slice aliases an internal buffer that is only valid
// until the next call to ProcessNewOrder; callers that need the fills
// afterward must copy them.
func (e *MatchingEngine) ProcessNewOrder(id uint64, price, qty uint32, side Side) ([]Fill, error) {
	idx, err := e.arena.Allocate(id, price, qty, side)
	if err != nil {
		return nil, err
	}
	inbound := e.arena.Get(idx)

	opp := opposite(side)
	oppIndex := e.book.index(opp)
	e.fillBuf = e.fillBuf[:0]

	for inbound.Qty > 0 {
		bestTick, ok := e.crossCandidate(side)
		if !ok || !crosses(side, price, bestTick) {
			break
		}

		level := e.book.queue(opp, bestTick)
		restingIdx := level.Head()
		resting := e.arena.Get(restingIdx)

		traded := min32(inbound.Qty, resting.Qty)
		inbound.Qty -= traded
		resting.Qty -= traded
		e.trades++

		fullyFilled := resting.Qty == 0
		e.fillBuf = append(e.fillBuf, Fill{
			Price:         bestTick,
			Qty:           traded,
			RestingID:     resting.ID,
			RestingSide:   resting.Side,
			InboundID:     id,
			RestingFilled: fullyFilled,
		})

		if fullyFilled {
			level.PopHead(e.arena)
			if level.IsEmpty() {
				oppIndex.Unmark(bestTick)
			}
			e.arena.Deallocate(restingIdx)
		}
	}

	if inbound.Qty > 0 {
		e.book.queue(side, price).PushTail(e.arena, idx)
		e.book.index(side).Mark(price)
	} else {
		e.arena.Deallocate(idx)
	}

	return e.fillBuf, nil
}

// crossCandidate returns the opposing side's extremum tick for an inbound
// order of the given side: the best ask for an inbound buy, the best bid
// for an inbound sell.
func (e *MatchingEngine) crossCandidate(inboundSide Side) (uint32, bool) {
	if inboundSide == Buy {
		return e.book.BestAsk()
	}
	return e.book.BestBid()
}

// crosses reports whether an inbound order at price, on inboundSide,
// crosses the opposing best tick.
func crosses(inboundSide Side, price, bestTick uint32) bool {
	if inboundSide == Buy {
		return bestTick <= price
	}
	return bestTick >= price
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
