package core

import "testing"

const maxTicks = 4096

func TestSeedUncrossedRest(t *testing.T) {
	e := NewMatchingEngine(16, maxTicks)
	fills, err := e.ProcessNewOrder(1, 100, 10, Buy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fills) != 0 {
		t.Fatalf("expected no fills, got %v", fills)
	}
	if e.TradesExecuted() != 0 {
		t.Fatalf("expected 0 trades, got %d", e.TradesExecuted())
	}
	bid, ok := e.BestBid()
	if !ok || bid != 100 {
		t.Fatalf("expected best bid 100, got %d ok=%v", bid, ok)
	}
	if _, ok := e.BestAsk(); ok {
		t.Fatalf("expected no best ask")
	}
}

func TestSeedExactFullCross(t *testing.T) {
	e := NewMatchingEngine(16, maxTicks)
	if _, err := e.ProcessNewOrder(1, 100, 10, Buy); err != nil {
		t.Fatalf("order 1: %v", err)
	}
	fills, err := e.ProcessNewOrder(2, 100, 10, Sell)
	if err != nil {
		t.Fatalf("order 2: %v", err)
	}
	if len(fills) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(fills))
	}
	if e.TradesExecuted() != 1 {
		t.Fatalf("expected trades_executed == 1, got %d", e.TradesExecuted())
	}
	if _, ok := e.BestBid(); ok {
		t.Fatalf("expected empty bid side")
	}
	if _, ok := e.BestAsk(); ok {
		t.Fatalf("expected empty ask side")
	}
	if e.Free() != e.Cap() {
		t.Fatalf("expected arena fully freed, free=%d cap=%d", e.Free(), e.Cap())
	}
}

func TestSeedPartialFillResidualRestsAsInboundSide(t *testing.T) {
	e := NewMatchingEngine(16, maxTicks)
	if _, err := e.ProcessNewOrder(1, 100, 5, Buy); err != nil {
		t.Fatalf("order 1: %v", err)
	}
	fills, err := e.ProcessNewOrder(2, 100, 12, Sell)
	if err != nil {
		t.Fatalf("order 2: %v", err)
	}
	if len(fills) != 1 || fills[0].Qty != 5 {
		t.Fatalf("expected 1 fill of size 5, got %+v", fills)
	}
	if e.TradesExecuted() != 1 {
		t.Fatalf("expected trades_executed == 1, got %d", e.TradesExecuted())
	}
	if _, ok := e.BestBid(); ok {
		t.Fatalf("expected no best bid")
	}
	ask, ok := e.BestAsk()
	if !ok || ask != 100 {
		t.Fatalf("expected best ask 100, got %d ok=%v", ask, ok)
	}
	headIdx, ok := e.book.DepthAt(Sell, 100)
	if !ok {
		t.Fatalf("expected non-empty ask queue at 100")
	}
	head := e.arena.Get(headIdx)
	if head.Qty != 7 || head.ID != 2 {
		t.Fatalf("expected residual head id=2 qty=7, got %+v", head)
	}
}

func TestSeedPriceTimePriorityAcrossDepth(t *testing.T) {
	e := NewMatchingEngine(16, maxTicks)
	mustProcess(t, e, 1, 100, 5, Sell)
	mustProcess(t, e, 2, 100, 3, Sell)
	mustProcess(t, e, 3, 101, 5, Sell)

	fills, err := e.ProcessNewOrder(4, 101, 8, Buy)
	if err != nil {
		t.Fatalf("order 4: %v", err)
	}
	if len(fills) != 2 {
		t.Fatalf("expected 2 fills, got %d: %+v", len(fills), fills)
	}
	if fills[0].RestingID != 1 || fills[0].Qty != 5 {
		t.Fatalf("expected first fill against id=1 size=5, got %+v", fills[0])
	}
	if fills[1].RestingID != 2 || fills[1].Qty != 3 {
		t.Fatalf("expected second fill against id=2 size=3, got %+v", fills[1])
	}
	if e.TradesExecuted() != 2 {
		t.Fatalf("expected trades_executed == 2, got %d", e.TradesExecuted())
	}
	if _, ok := e.book.DepthAt(Sell, 100); ok {
		t.Fatalf("expected ask level 100 empty")
	}
	headIdx, ok := e.book.DepthAt(Sell, 101)
	if !ok {
		t.Fatalf("expected ask level 101 non-empty")
	}
	head := e.arena.Get(headIdx)
	if head.ID != 3 || head.Qty != 5 {
		t.Fatalf("expected id=3 qty=5 resting at 101, got %+v", head)
	}
	if _, ok := e.BestBid(); ok {
		t.Fatalf("expected no best bid")
	}
}

func TestSeedWalksMultipleLevels(t *testing.T) {
	e := NewMatchingEngine(16, maxTicks)
	mustProcess(t, e, 1, 100, 2, Sell)
	mustProcess(t, e, 2, 101, 2, Sell)
	mustProcess(t, e, 3, 102, 2, Sell)

	fills, err := e.ProcessNewOrder(4, 105, 7, Buy)
	if err != nil {
		t.Fatalf("order 4: %v", err)
	}
	if len(fills) != 3 {
		t.Fatalf("expected 3 fills, got %d: %+v", len(fills), fills)
	}
	wantPrices := []uint32{100, 101, 102}
	for i, f := range fills {
		if f.Price != wantPrices[i] {
			t.Fatalf("fill %d: expected price %d, got %d", i, wantPrices[i], f.Price)
		}
	}
	bid, ok := e.BestBid()
	if !ok || bid != 105 {
		t.Fatalf("expected residual resting at 105, got %d ok=%v", bid, ok)
	}
	if _, ok := e.BestAsk(); ok {
		t.Fatalf("expected ask side fully drained")
	}
	headIdx, _ := e.book.DepthAt(Buy, 105)
	head := e.arena.Get(headIdx)
	if head.Qty != 1 || head.ID != 4 {
		t.Fatalf("expected residual id=4 qty=1, got %+v", head)
	}
}

func TestSeedNonCrossDueToPrice(t *testing.T) {
	e := NewMatchingEngine(16, maxTicks)
	mustProcess(t, e, 1, 110, 10, Sell)

	fills, err := e.ProcessNewOrder(2, 109, 10, Buy)
	if err != nil {
		t.Fatalf("order 2: %v", err)
	}
	if len(fills) != 0 {
		t.Fatalf("expected no fills, got %+v", fills)
	}
	if e.TradesExecuted() != 0 {
		t.Fatalf("expected 0 trades, got %d", e.TradesExecuted())
	}
	bid, ok := e.BestBid()
	if !ok || bid != 109 {
		t.Fatalf("expected best bid 109, got %d ok=%v", bid, ok)
	}
	ask, ok := e.BestAsk()
	if !ok || ask != 110 {
		t.Fatalf("expected best ask 110, got %d ok=%v", ask, ok)
	}
}

func TestConservationOfQuantity(t *testing.T) {
	e := NewMatchingEngine(16, maxTicks)
	mustProcess(t, e, 1, 100, 5, Sell)
	mustProcess(t, e, 2, 101, 5, Sell)

	const inboundQty = 8
	fills, err := e.ProcessNewOrder(3, 101, inboundQty, Buy)
	if err != nil {
		t.Fatalf("order 3: %v", err)
	}
	var filled uint32
	for _, f := range fills {
		filled += f.Qty
	}
	var residual uint32
	if headIdx, ok := e.book.DepthAt(Buy, 101); ok {
		if head := e.arena.Get(headIdx); head.ID == 3 {
			residual = head.Qty
		}
	}
	if filled+residual != inboundQty {
		t.Fatalf("conservation violated: filled=%d residual=%d want total=%d", filled, residual, inboundQty)
	}
}

func TestArenaExhaustionSurfacesError(t *testing.T) {
	e := NewMatchingEngine(1, maxTicks)
	if _, err := e.ProcessNewOrder(1, 100, 5, Buy); err != nil {
		t.Fatalf("first order should rest: %v", err)
	}
	if _, err := e.ProcessNewOrder(2, 200, 5, Buy); err != ErrCapacityExhausted {
		t.Fatalf("expected ErrCapacityExhausted, got %v", err)
	}
}

func mustProcess(t *testing.T, e *MatchingEngine, id uint64, price, qty uint32, side Side) {
	t.Helper()
	if _, err := e.ProcessNewOrder(id, price, qty, side); err != nil {
		t.Fatalf("ProcessNewOrder(%d): %v", id, err)
	}
}
