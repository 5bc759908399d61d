// Command matchengine runs one matching engine process: it loads
// configuration, replays durable state, and starts the runtime, HTTP API,
// and Kafka ingestion/publication loops.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"matchcore/infra/config"
	"matchcore/infra/kafkaingest"
	"matchcore/infra/kafkapublish"
	"matchcore/infra/outbox"
	"matchcore/infra/sequence"
	"matchcore/infra/tradelog"
	"matchcore/infra/wal"
	"matchcore/runtime"
	"matchcore/server"
	"matchcore/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("matchengine: load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := runtime.NewRunner(cfg.Engine.MaxOrders, cfg.Engine.MaxTicks)
	go r.Run()
	defer r.Stop()

	submitSeq := sequence.New(0)
	if err := service.ReplayFromWAL(cfg.WAL.Dir, r, submitSeq); err != nil {
		log.Fatalf("matchengine: wal replay: %v", err)
	}

	entryLog, err := wal.Open(wal.Config{
		Dir:         cfg.WAL.Dir,
		SegmentSize: cfg.WAL.SegmentSizeMB * 1024 * 1024,
	})
	if err != nil {
		log.Fatalf("matchengine: open wal: %v", err)
	}
	defer entryLog.Close()

	ob, err := outbox.Open(cfg.Outbox.Dir)
	if err != nil {
		log.Fatalf("matchengine: open outbox: %v", err)
	}
	defer ob.Close()

	ledger, err := tradelog.Open(cfg.TradeLog.Path)
	if err != nil {
		log.Fatalf("matchengine: open tradelog: %v", err)
	}
	defer ledger.Close()

	svc := service.NewOrderService(r, entryLog, submitSeq)

	fillSeq := sequence.New(0)
	go recordFills(ctx, r, fillSeq, ob, ledger)

	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.IngestTopic != "" {
		consumer := kafkaingest.New(cfg.Kafka.Brokers, cfg.Kafka.IngestTopic, cfg.Kafka.GroupID, svc)
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.Printf("matchengine: kafka ingest stopped: %v", err)
			}
		}()
	}

	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.PublishTopic != "" {
		publisher, err := kafkapublish.New(ob, cfg.Kafka.Brokers, cfg.Kafka.PublishTopic)
		if err != nil {
			log.Fatalf("matchengine: kafka publisher: %v", err)
		}
		defer publisher.Close()
		go publisher.Run(ctx)
	}

	srv := server.New(svc, cfg.HTTP.AuthToken, cfg.HTTP.CORSOrigin)
	httpServer := &http.Server{Addr: cfg.HTTP.ListenAddr, Handler: srv.Routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("matchengine: listening on %s for symbol %s", cfg.HTTP.ListenAddr, cfg.Engine.Symbol)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("matchengine: http server: %v", err)
	}
}

// recordFills mirrors every trade the runtime broadcasts into the outbox
// and the audit ledger, keyed by an independent sequence from the
// submission WAL's. This runs after the WAL append that happens before
// submission, so a crash between the two only means a resubmitted order
// on replay, never a lost fill record.
func recordFills(ctx context.Context, r *runtime.Runner, seq *sequence.Sequencer, ob *outbox.Outbox, ledger *tradelog.TradeLog) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-r.Trades():
			if !ok {
				return
			}
			n := seq.Next()
			now := time.Now().UnixNano()
			if err := ob.PutNew(n, ev.Fill); err != nil {
				log.Printf("matchengine: outbox put failed for seq %d: %v", n, err)
			}
			if err := ledger.Record(ctx, n, now, ev.Fill); err != nil {
				log.Printf("matchengine: tradelog record failed for seq %d: %v", n, err)
			}
		}
	}
}
