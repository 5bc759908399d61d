package bots

import (
	"context"
	"math/rand"
	"time"

	"matchcore/core"
)

// RandomAskBot places limit asks at a random offset above the mid price.
type RandomAskBot struct {
	Interval   time.Duration
	Quantity   uint32
	RangeTicks uint32
	rand       *rand.Rand
}

func NewRandomAskBot() *RandomAskBot {
	return &RandomAskBot{
		Interval:   200 * time.Millisecond,
		Quantity:   1,
		RangeTicks: 5,
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *RandomAskBot) Start(ctx context.Context, client EngineClient) {
	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.placeAsk(ctx, client)
		}
	}
}

func (b *RandomAskBot) placeAsk(ctx context.Context, client EngineClient) {
	view, err := client.Snapshot(ctx)
	if err != nil {
		return
	}
	mid := midPrice(view)
	if mid == 0 {
		return
	}

	delta := uint32(b.rand.Int63n(int64(b.RangeTicks) + 1))
	price := mid + delta

	_, _ = client.SubmitOrder(ctx, price, b.Quantity, core.Sell)
}
