// Package outbox durably tracks trades awaiting external publication,
// decoupling "matched" from "published" so a downstream Kafka outage never
// blocks the matching engine's hot path.
package outbox

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"

	"matchcore/core"
)

// State is where a trade sits in the publication lifecycle.
type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Entry is one outbox record: a fill keyed by the caller-supplied fill
// sequence number (independent of the WAL's), plus its publication state.
type Entry struct {
	Seq         uint64
	Fill        core.Fill
	State       State
	Retries     uint32
	LastAttempt int64
}

// encoded layout: [state:1][retries:4][lastAttempt:8][price:4][qty:4][restingID:8][restingSide:1][inboundID:8][restingFilled:1]
const recordLen = 1 + 4 + 8 + 4 + 4 + 8 + 1 + 8 + 1

func encodeEntry(e Entry) []byte {
	buf := make([]byte, recordLen)
	buf[0] = byte(e.State)
	binary.BigEndian.PutUint32(buf[1:5], e.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(e.LastAttempt))
	binary.BigEndian.PutUint32(buf[13:17], e.Fill.Price)
	binary.BigEndian.PutUint32(buf[17:21], e.Fill.Qty)
	binary.BigEndian.PutUint64(buf[21:29], e.Fill.RestingID)
	buf[29] = byte(e.Fill.RestingSide)
	binary.BigEndian.PutUint64(buf[30:38], e.Fill.InboundID)
	if e.Fill.RestingFilled {
		buf[38] = 1
	}
	return buf
}

func decodeEntry(seq uint64, b []byte) (Entry, error) {
	if len(b) != recordLen {
		return Entry{}, errors.Newf("outbox: invalid record length %d", len(b))
	}
	return Entry{
		Seq:         seq,
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Fill: core.Fill{
			Price:         binary.BigEndian.Uint32(b[13:17]),
			Qty:           binary.BigEndian.Uint32(b[17:21]),
			RestingID:     binary.BigEndian.Uint64(b[21:29]),
			RestingSide:   core.Side(b[29]),
			InboundID:     binary.BigEndian.Uint64(b[30:38]),
			RestingFilled: b[38] == 1,
		},
	}, nil
}

// Outbox is a pebble-backed durable queue of trades pending publication.
type Outbox struct {
	db *pebble.DB
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false, // durability across process crashes is the point
	})
	if err != nil {
		return nil, errors.Wrap(err, "outbox: open")
	}
	return &Outbox{db: db}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// PutNew records a freshly matched fill, keyed by seq, the fill sequence
// number the caller assigned to it.
func (o *Outbox) PutNew(seq uint64, fill core.Fill) error {
	e := Entry{Seq: seq, Fill: fill, State: StateNew}
	return o.db.Set(keyFor(seq), encodeEntry(e), pebble.Sync)
}

// UpdateState transitions a fill's publication state, e.g. after a
// successful or failed Kafka send.
func (o *Outbox) UpdateState(seq uint64, state State, retries uint32, attemptedAtUnixNano int64) error {
	e, err := o.Get(seq)
	if err != nil {
		return err
	}
	e.State = state
	e.Retries = retries
	e.LastAttempt = attemptedAtUnixNano
	return o.db.Set(keyFor(seq), encodeEntry(e), pebble.Sync)
}

// Delete removes the record for seq, whatever its state.
func (o *Outbox) Delete(seq uint64) error {
	return o.db.Delete(keyFor(seq), pebble.Sync)
}

// Get returns the current record for seq.
func (o *Outbox) Get(seq uint64) (Entry, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if err != nil {
		return Entry{}, err
	}
	defer closer.Close()
	return decodeEntry(seq, val)
}

// ScanByState iterates every record in the given state, in key (sequence)
// order. Used by infra/kafkapublish to find work.
func (o *Outbox) ScanByState(state State, fn func(Entry) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("trade/"),
		UpperBound: []byte("trade/~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		e, err := decodeEntry(seq, iter.Value())
		if err != nil {
			return err
		}
		if e.State != state {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return iter.Error()
}

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("trade/%020d", seq))
}

func parseKey(b []byte) (uint64, error) {
	var seq uint64
	_, err := fmt.Sscanf(string(bytes.TrimPrefix(b, []byte("trade/"))), "%d", &seq)
	return seq, err
}
