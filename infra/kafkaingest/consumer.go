// Package kafkaingest decodes inbound order requests off a Kafka topic and
// hands them to a runtime.Runner, so that order flow can arrive from
// outside the process instead of only from the HTTP API.
package kafkaingest

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"

	"matchcore/core"
	"matchcore/runtime"
)

// Message is the wire shape of one inbound order request. Field names are
// short since this is a hot ingestion path, not a public API contract.
type Message struct {
	ID    uint64    `json:"id"`
	Price uint32    `json:"price"`
	Qty   uint32    `json:"qty"`
	Side  core.Side `json:"side"`
}

// Submitter is the runtime surface a Consumer needs to hand off decoded
// order requests. *runtime.Runner satisfies it directly.
type Submitter interface {
	Submit(ctx context.Context, req runtime.OrderRequest) (runtime.OrderResult, error)
}

// Consumer reads order requests off a Kafka topic and submits each one to
// a Submitter in the order received.
type Consumer struct {
	reader *kafka.Reader
	runner Submitter
}

// New constructs a Consumer against the given brokers/topic/group. It does
// not start reading until Run is called.
func New(brokers []string, topic, groupID string, r Submitter) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
		runner: r,
	}
}

// Run reads messages until ctx is done or the reader returns a fatal
// error. Malformed messages are logged and skipped rather than aborting
// the whole consumer; a bad payload from one producer shouldn't stall
// every other order in the topic.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var msg Message
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			log.Printf("kafkaingest: dropping malformed message at offset %d: %v", m.Offset, err)
			continue
		}

		result, err := c.runner.Submit(ctx, runtime.OrderRequest{
			ID:    msg.ID,
			Price: msg.Price,
			Qty:   msg.Qty,
			Side:  msg.Side,
		})
		if err != nil {
			log.Printf("kafkaingest: submit failed for order %d: %v", msg.ID, err)
			continue
		}
		if result.Err != nil {
			log.Printf("kafkaingest: order %d rejected: %v", msg.ID, result.Err)
		}
	}
}

// Close releases the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
