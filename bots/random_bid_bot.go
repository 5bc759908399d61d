package bots

import (
	"context"
	"math/rand"
	"time"

	"matchcore/core"
)

// RandomBidBot places limit bids at a random offset below the mid price.
type RandomBidBot struct {
	Interval   time.Duration
	Quantity   uint32
	RangeTicks uint32
	rand       *rand.Rand
}

func NewRandomBidBot() *RandomBidBot {
	return &RandomBidBot{
		Interval:   200 * time.Millisecond,
		Quantity:   1,
		RangeTicks: 5,
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *RandomBidBot) Start(ctx context.Context, client EngineClient) {
	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.placeBid(ctx, client)
		}
	}
}

func (b *RandomBidBot) placeBid(ctx context.Context, client EngineClient) {
	view, err := client.Snapshot(ctx)
	if err != nil {
		return
	}
	mid := midPrice(view)
	if mid == 0 {
		return
	}

	delta := uint32(b.rand.Int63n(int64(b.RangeTicks) + 1))
	price := mid
	if delta < mid {
		price = mid - delta
	} else {
		price = 1
	}

	_, _ = client.SubmitOrder(ctx, price, b.Quantity, core.Buy)
}
