package service

import (
	"context"
	"testing"

	"matchcore/core"
	"matchcore/infra/sequence"
	"matchcore/infra/wal"
	"matchcore/runtime"
)

func TestSubmitAppendsWALBeforeMatching(t *testing.T) {
	dir := t.TempDir()
	r := runtime.NewRunner(16, 4096)
	go r.Run()
	defer r.Stop()

	entryLog, err := wal.Open(wal.Config{Dir: dir, SegmentSize: 1 << 20})
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}

	svc := NewOrderService(r, entryLog, sequence.New(0))
	ctx := context.Background()

	if _, err := svc.Submit(ctx, runtime.OrderRequest{ID: 1, Price: 100, Qty: 10, Side: core.Buy}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	entryLog.Close()

	lastSeq, err := wal.Replay(dir, func(rec *wal.Record) error {
		if rec.Order.ID != 1 || rec.Order.Price != 100 || rec.Order.Qty != 10 {
			t.Fatalf("unexpected replayed record: %+v", rec)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if lastSeq != 1 {
		t.Fatalf("expected lastSeq 1, got %d", lastSeq)
	}
}

func TestReplayFromWALRebuildsRestingOrders(t *testing.T) {
	dir := t.TempDir()

	seedRunner := runtime.NewRunner(16, 4096)
	go seedRunner.Run()
	entryLog, err := wal.Open(wal.Config{Dir: dir, SegmentSize: 1 << 20})
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}
	seedSvc := NewOrderService(seedRunner, entryLog, sequence.New(0))
	if _, err := seedSvc.Submit(context.Background(), runtime.OrderRequest{ID: 1, Price: 100, Qty: 10, Side: core.Buy}); err != nil {
		t.Fatalf("seed submit: %v", err)
	}
	entryLog.Close()
	seedRunner.Stop()

	freshRunner := runtime.NewRunner(16, 4096)
	go freshRunner.Run()
	defer freshRunner.Stop()

	seqGen := sequence.New(0)
	if err := ReplayFromWAL(dir, freshRunner, seqGen); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if seqGen.Current() != 1 {
		t.Fatalf("expected seqGen resumed at 1, got %d", seqGen.Current())
	}

	view, err := freshRunner.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !view.HasBid || view.BestBid != 100 {
		t.Fatalf("expected replayed resting bid at 100, got %+v", view)
	}
}
