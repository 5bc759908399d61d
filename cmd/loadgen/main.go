// Command loadgen drives synthetic order flow against a standalone
// runtime.Runner using the bots package, for local load testing without
// needing a full matchengine process.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"matchcore/bots"
	"matchcore/core"
	"matchcore/runtime"
)

func main() {
	maxOrders := flag.Int("max-orders", 1<<20, "arena capacity")
	maxTicks := flag.Int("max-ticks", 4096, "tick domain size")
	duration := flag.Duration("duration", 30*time.Second, "how long to run")
	orderInterval := flag.Duration("order-interval", 20*time.Millisecond, "minimum spacing between submissions")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()

	r := runtime.NewRunner(*maxOrders, *maxTicks)
	go r.Run()
	defer r.Stop()

	seedBook(ctx, r, *maxTicks)

	sup := bots.NewSupervisor(r, *orderInterval)
	sup.Start(ctx)

	view, err := r.Snapshot(context.Background())
	if err != nil {
		log.Fatalf("loadgen: final snapshot: %v", err)
	}
	log.Printf("loadgen: finished, trades_executed=%d best_bid=%v best_ask=%v",
		view.TradesExecuted, optionalTick(view.HasBid, view.BestBid), optionalTick(view.HasAsk, view.BestAsk))
}

// seedBook rests one bid and one ask near the middle of the tick domain so
// bots have a mid price to work from immediately.
func seedBook(ctx context.Context, r *runtime.Runner, maxTicks int) {
	mid := uint32(maxTicks / 2)
	_, _ = r.Submit(ctx, runtime.OrderRequest{ID: 1, Price: mid - 1, Qty: 100, Side: core.Buy})
	_, _ = r.Submit(ctx, runtime.OrderRequest{ID: 2, Price: mid + 1, Qty: 100, Side: core.Sell})
}

func optionalTick(has bool, tick uint32) interface{} {
	if !has {
		return "none"
	}
	return tick
}
