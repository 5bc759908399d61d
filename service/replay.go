package service

import (
	"context"
	"log"

	"matchcore/infra/sequence"
	"matchcore/infra/wal"
	"matchcore/runtime"
)

// ReplayFromWAL rebuilds runtime state from the write-ahead log and
// resumes seqGen from the highest sequence number seen. It must run
// before r starts accepting new traffic.
func ReplayFromWAL(walDir string, r *runtime.Runner, seqGen *sequence.Sequencer) error {
	replayed := 0
	lastSeq, err := wal.Replay(walDir, func(rec *wal.Record) error {
		if rec.Type != wal.RecordSubmit {
			return nil
		}
		_, err := r.Submit(context.Background(), runtime.OrderRequest{
			ID:    rec.Order.ID,
			Price: rec.Order.Price,
			Qty:   rec.Order.Qty,
			Side:  rec.Order.Side,
		})
		if err != nil {
			return err
		}
		replayed++
		return nil
	})
	if err != nil {
		return err
	}

	seqGen.Reset(lastSeq)
	log.Printf("service: wal replay complete, %d orders replayed, last seq %d", replayed, lastSeq)
	return nil
}
