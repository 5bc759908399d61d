// Package kafkapublish drains matchcore/infra/outbox and publishes each
// pending trade to Kafka, retrying failed sends on the next tick rather
// than blocking the matching engine on a broker round trip.
package kafkapublish

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/IBM/sarama"

	"matchcore/infra/outbox"
)

// Event is the wire shape of one published trade.
type Event struct {
	Seq           uint64 `json:"seq"`
	Price         uint32 `json:"price"`
	Qty           uint32 `json:"qty"`
	RestingID     uint64 `json:"resting_id"`
	InboundID     uint64 `json:"inbound_id"`
	RestingFilled bool   `json:"resting_filled"`
}

// Publisher periodically scans the outbox for unsent trades and produces
// them to a Kafka topic.
type Publisher struct {
	outbox   *outbox.Outbox
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
}

// New constructs a Publisher against the given brokers/topic, draining ob.
func New(ob *outbox.Outbox, brokers []string, topic string) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		outbox:   ob,
		producer: producer,
		topic:    topic,
		interval: 250 * time.Millisecond,
	}, nil
}

// Run drains the outbox on a fixed interval until ctx is done.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.drainOnce()
		}
	}
}

// drainOnce publishes every StateNew entry, then retries every StateFailed
// entry, including any that failed in the StateNew pass just before.
func (p *Publisher) drainOnce() {
	p.publishState(outbox.StateNew)
	p.publishState(outbox.StateFailed)
}

func (p *Publisher) publishState(state outbox.State) {
	now := time.Now().UnixNano()
	_ = p.outbox.ScanByState(state, func(e outbox.Entry) error {
		payload, err := json.Marshal(Event{
			Seq:           e.Seq,
			Price:         e.Fill.Price,
			Qty:           e.Fill.Qty,
			RestingID:     e.Fill.RestingID,
			InboundID:     e.Fill.InboundID,
			RestingFilled: e.Fill.RestingFilled,
		})
		if err != nil {
			return nil
		}

		_ = p.outbox.UpdateState(e.Seq, outbox.StateSent, e.Retries, now)

		msg := &sarama.ProducerMessage{
			Topic: p.topic,
			Value: sarama.ByteEncoder(payload),
		}
		if _, _, err := p.producer.SendMessage(msg); err != nil {
			log.Printf("kafkapublish: send failed for seq %d: %v", e.Seq, err)
			_ = p.outbox.UpdateState(e.Seq, outbox.StateFailed, e.Retries+1, now)
			return nil
		}
		_ = p.outbox.UpdateState(e.Seq, outbox.StateAcked, e.Retries, now)
		return nil
	})
}

// Close releases the underlying Kafka producer.
func (p *Publisher) Close() error {
	return p.producer.Close()
}
