// Package runtime owns exactly one core.MatchingEngine and serializes every
// access to it through a single goroutine's channel-driven loop. This is
// the concrete realization of the "single-producer/single-consumer"
// arrangement spec.md §5 describes as external to the matching core: core
// itself has no locks and cannot be touched from more than one goroutine,
// so Runner is the only thing in this repository allowed to hold a
// *core.MatchingEngine.
package runtime

import (
	"context"

	"matchcore/core"
)

// OrderRequest is a caller's request to submit one new order.
type OrderRequest struct {
	ID    uint64
	Price uint32
	Qty   uint32
	Side  core.Side
}

// OrderResult is what came back from processing an OrderRequest: the fills
// it produced (empty if it rested without crossing) and any error.
type OrderResult struct {
	Fills []core.Fill
	Err   error
}

// BookView is a point-in-time read of top-of-book state, safe to hand to
// any goroutine since it is a plain value copy taken on the Runner's own
// goroutine.
type BookView struct {
	BestBid        uint32
	HasBid         bool
	BestAsk        uint32
	HasAsk         bool
	TradesExecuted uint64
}

// TradeEvent is one fill broadcast to subscribers after a submission is
// processed.
type TradeEvent struct {
	core.Fill
	InboundPrice uint32
	InboundSide  core.Side
}

type submission struct {
	req  OrderRequest
	resp chan OrderResult
}

type snapshotRequest struct {
	resp chan BookView
}

// Runner drains submissions on its own goroutine, calling
// core.MatchingEngine.ProcessNewOrder for each one and broadcasting the
// resulting fills and top-of-book changes to any subscribers.
type Runner struct {
	engine *core.MatchingEngine

	submitCh chan submission
	snapCh   chan snapshotRequest
	stopCh   chan struct{}
	doneCh   chan struct{}

	trades  chan TradeEvent
	updates chan BookView
}

// NewRunner constructs a Runner around a freshly built engine of the given
// sizing. The Runner does not start processing until Run is called.
func NewRunner(maxOrders, maxTicks int) *Runner {
	return &Runner{
		engine:   core.NewMatchingEngine(maxOrders, maxTicks),
		submitCh: make(chan submission),
		snapCh:   make(chan snapshotRequest),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		trades:   make(chan TradeEvent, 256),
		updates:  make(chan BookView, 256),
	}
}

// Run drains the request channels until Stop is called. It must be run on
// its own goroutine, and must be the only goroutine ever touching the
// underlying core.MatchingEngine.
func (r *Runner) Run() {
	defer close(r.doneCh)
	defer close(r.trades)
	defer close(r.updates)

	for {
		select {
		case sub := <-r.submitCh:
			fills, err := r.engine.ProcessNewOrder(sub.req.ID, sub.req.Price, sub.req.Qty, sub.req.Side)
			result := OrderResult{Err: err}
			if err == nil {
				result.Fills = append(result.Fills, fills...)
				r.broadcastFills(sub.req, fills)
				r.publishView()
			}
			sub.resp <- result

		case req := <-r.snapCh:
			req.resp <- r.snapshotView()

		case <-r.stopCh:
			return
		}
	}
}

// Stop signals the Run loop to exit and waits for it to do so.
func (r *Runner) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

// Submit hands one order request to the Runner's goroutine and blocks for
// its result, or until ctx is done.
func (r *Runner) Submit(ctx context.Context, req OrderRequest) (OrderResult, error) {
	resp := make(chan OrderResult, 1)
	select {
	case <-ctx.Done():
		return OrderResult{}, ctx.Err()
	case r.submitCh <- submission{req: req, resp: resp}:
	}

	select {
	case <-ctx.Done():
		return OrderResult{}, ctx.Err()
	case result := <-resp:
		return result, nil
	}
}

// Snapshot returns a current top-of-book view, or an error if ctx expires
// first.
func (r *Runner) Snapshot(ctx context.Context) (BookView, error) {
	resp := make(chan BookView, 1)
	select {
	case <-ctx.Done():
		return BookView{}, ctx.Err()
	case r.snapCh <- snapshotRequest{resp: resp}:
	}

	select {
	case <-ctx.Done():
		return BookView{}, ctx.Err()
	case view := <-resp:
		return view, nil
	}
}

// Trades exposes the stream of executed fills. Subscribers that fall
// behind the buffered channel's capacity will miss events; this mirrors
// the teacher's best-effort broadcast hub rather than adding backpressure
// to the matching loop.
func (r *Runner) Trades() <-chan TradeEvent { return r.trades }

// BookUpdates exposes the stream of top-of-book snapshots taken after
// every processed submission.
func (r *Runner) BookUpdates() <-chan BookView { return r.updates }

func (r *Runner) broadcastFills(req OrderRequest, fills []core.Fill) {
	for _, f := range fills {
		ev := TradeEvent{Fill: f, InboundPrice: req.Price, InboundSide: req.Side}
		select {
		case r.trades <- ev:
		default:
		}
	}
}

func (r *Runner) publishView() {
	view := r.snapshotView()
	select {
	case r.updates <- view:
	default:
	}
}

func (r *Runner) snapshotView() BookView {
	view := BookView{TradesExecuted: r.engine.TradesExecuted()}
	if bid, ok := r.engine.BestBid(); ok {
		view.BestBid, view.HasBid = bid, true
	}
	if ask, ok := r.engine.BestAsk(); ok {
		view.BestAsk, view.HasAsk = ask, true
	}
	return view
}
