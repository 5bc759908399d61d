package service

import (
	"context"
	"fmt"

	"matchcore/infra/sequence"
	"matchcore/infra/wal"
	"matchcore/runtime"
)

// OrderService is the only write entry point into a matchengine process:
// it assigns each inbound order a durable sequence number, appends it to
// the write-ahead log, and only then hands it to the runtime. It
// satisfies server.Submitter and kafkaingest.Submitter, so HTTP and Kafka
// order flow both get the same durability guarantee.
type OrderService struct {
	runner *runtime.Runner
	wal    *wal.WAL
	seqGen *sequence.Sequencer
}

// NewOrderService wires a runtime.Runner to durable logging. seqGen
// should already be reset to the last sequence number seen during WAL
// replay before the service accepts new traffic.
func NewOrderService(r *runtime.Runner, w *wal.WAL, seqGen *sequence.Sequencer) *OrderService {
	return &OrderService{runner: r, wal: w, seqGen: seqGen}
}

// Submit durably logs req before submitting it to the runtime. If the WAL
// append fails, the order is rejected rather than risk an unrecoverable
// gap between what was matched and what replay could reconstruct.
func (s *OrderService) Submit(ctx context.Context, req runtime.OrderRequest) (runtime.OrderResult, error) {
	seq := s.seqGen.Next()
	rec := wal.NewRecord(wal.RecordSubmit, seq, wal.SubmittedOrder{
		ID:    req.ID,
		Price: req.Price,
		Qty:   req.Qty,
		Side:  req.Side,
	})
	if err := s.wal.Append(rec); err != nil {
		return runtime.OrderResult{}, fmt.Errorf("service: wal append: %w", err)
	}

	return s.runner.Submit(ctx, req)
}

// Snapshot proxies to the underlying runtime; snapshots carry no
// state-changing intent, so they are not WAL entries.
func (s *OrderService) Snapshot(ctx context.Context) (runtime.BookView, error) {
	return s.runner.Snapshot(ctx)
}

func (s *OrderService) Trades() <-chan runtime.TradeEvent    { return s.runner.Trades() }
func (s *OrderService) BookUpdates() <-chan runtime.BookView { return s.runner.BookUpdates() }
