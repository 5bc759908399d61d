package bots

import (
	"context"
	"sync"
	"time"

	"matchcore/core"
	"matchcore/runtime"
)

// ThrottledClient wraps a runtime.Runner with basic rate limiting and
// bookkeeping of which order IDs a bot swarm itself submitted.
type ThrottledClient struct {
	runner   *runtime.Runner
	throttle <-chan time.Time

	mu    sync.Mutex
	idSeq uint64
	owned map[uint64]struct{}
}

// NewThrottledClient wraps r with rate limiting driven by throttle.
func NewThrottledClient(r *runtime.Runner, throttle <-chan time.Time) *ThrottledClient {
	return &ThrottledClient{
		runner:   r,
		throttle: throttle,
		owned:    make(map[uint64]struct{}),
	}
}

func (c *ThrottledClient) waitThrottle(ctx context.Context) error {
	if c.throttle == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.throttle:
		return nil
	}
}

func (c *ThrottledClient) SubmitOrder(ctx context.Context, price, qty uint32, side core.Side) ([]core.Fill, error) {
	if err := c.waitThrottle(ctx); err != nil {
		return nil, err
	}

	id := c.NextID()
	result, err := c.runner.Submit(ctx, runtime.OrderRequest{ID: id, Price: price, Qty: qty, Side: side})
	if err != nil {
		return nil, err
	}
	if result.Err != nil {
		return nil, result.Err
	}

	c.mu.Lock()
	c.owned[id] = struct{}{}
	c.mu.Unlock()
	return result.Fills, nil
}

func (c *ThrottledClient) Snapshot(ctx context.Context) (runtime.BookView, error) {
	return c.runner.Snapshot(ctx)
}

func (c *ThrottledClient) Trades() <-chan runtime.TradeEvent {
	return c.runner.Trades()
}

func (c *ThrottledClient) NextID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idSeq++
	return c.idSeq
}

func (c *ThrottledClient) OwnsOrder(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.owned[id]
	return ok
}
