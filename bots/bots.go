// Package bots generates synthetic order flow against a matchcore
// runtime.Runner, for load testing and local demos.
package bots

import (
	"context"

	"matchcore/core"
	"matchcore/runtime"
)

// Bot represents a trading agent that can be run under a Supervisor.
type Bot interface {
	Start(ctx context.Context, client EngineClient)
}

// EngineClient abstracts the minimal surface bots need from the matching
// runtime. There is no CancelOrder here: matchcore's core has no
// cancellation operation, so bots are fire-and-forget order generators.
type EngineClient interface {
	SubmitOrder(ctx context.Context, price, qty uint32, side core.Side) ([]core.Fill, error)
	Snapshot(ctx context.Context) (runtime.BookView, error)
	Trades() <-chan runtime.TradeEvent
	OwnsOrder(id uint64) bool
}
