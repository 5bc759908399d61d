package bots

import (
	"context"
	"log"
	"sync"
	"time"

	"matchcore/core"
	"matchcore/runtime"
)

// Supervisor orchestrates a swarm of bots against a shared throttled
// client and tracks the swarm's aggregate position and cash from fills.
type Supervisor struct {
	bots     []Bot
	client   *ThrottledClient
	pnl      *pnlTracker
	throttle *time.Ticker
}

// NewSupervisor builds a default swarm of bots against r, submitting at
// most one order per orderInterval.
func NewSupervisor(r *runtime.Runner, orderInterval time.Duration) *Supervisor {
	throttle := time.NewTicker(orderInterval)
	client := NewThrottledClient(r, throttle.C)
	bots := []Bot{
		NewRandomBidBot(),
		NewRandomAskBot(),
		NewRandomBidBot(),
		NewRandomAskBot(),
	}
	return &Supervisor{
		bots:     bots,
		client:   client,
		pnl:      &pnlTracker{},
		throttle: throttle,
	}
}

// Start launches all bots and PnL monitoring until ctx is canceled.
func (s *Supervisor) Start(ctx context.Context) {
	logTicker := time.NewTicker(2 * time.Second)
	defer logTicker.Stop()
	defer s.throttle.Stop()

	for _, bot := range s.bots {
		b := bot
		go b.Start(ctx, s.client)
	}

	go s.consumeTrades(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-logTicker.C:
			pos, cash := s.pnl.Snapshot()
			log.Printf("bots: position=%d cash=%d", pos, cash)
		}
	}
}

func (s *Supervisor) consumeTrades(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case trade, ok := <-s.client.Trades():
			if !ok {
				return
			}
			s.pnl.Record(trade, s.client)
		}
	}
}

// pnlTracker accumulates a rough position/cash view from the swarm's own
// fills. It exists for demo/loadgen visibility, not accounting accuracy.
type pnlTracker struct {
	mu       sync.Mutex
	position int64
	cash     int64
}

func (p *pnlTracker) Record(trade runtime.TradeEvent, client EngineClient) {
	p.mu.Lock()
	defer p.mu.Unlock()

	notional := int64(trade.Price) * int64(trade.Qty)
	if client.OwnsOrder(trade.InboundID) {
		applyFill(p, trade.InboundSide, trade.Qty, notional)
	}
	if client.OwnsOrder(trade.RestingID) {
		applyFill(p, trade.RestingSide, trade.Qty, notional)
	}
}

func applyFill(p *pnlTracker, side core.Side, qty uint32, notional int64) {
	if side == core.Buy {
		p.position += int64(qty)
		p.cash -= notional
	} else {
		p.position -= int64(qty)
		p.cash += notional
	}
}

func (p *pnlTracker) Snapshot() (int64, int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position, p.cash
}
