package wal

import (
	"encoding/binary"
	"time"

	"matchcore/core"
)

// RecordType distinguishes the kinds of intent this WAL can durably record.
// The engine only produces new-order submissions today; RecordCancel is
// reserved for when external cancellation (spec.md §4.2's PriceLevelQueue.Remove)
// grows a network-facing entry point.
type RecordType uint8

const (
	RecordSubmit RecordType = iota
	RecordCancel
)

// Record is one durable WAL entry: a sequence-stamped order submission
// intent, written before the order reaches the matching engine so a crash
// between "accepted" and "matched" is recoverable by replay.
type Record struct {
	Type  RecordType
	Seq   uint64
	Time  int64
	Order SubmittedOrder
}

// SubmittedOrder is the durable encoding of a core.MatchingEngine.ProcessNewOrder
// call, independent of the transport (HTTP, Kafka) it arrived over.
type SubmittedOrder struct {
	ID    uint64
	Price uint32
	Qty   uint32
	Side  core.Side
}

// submissionLen is the fixed encoded length of a SubmittedOrder: id(8) +
// price(4) + qty(4) + side(1).
const submissionLen = 8 + 4 + 4 + 1

func NewRecord(t RecordType, seq uint64, o SubmittedOrder) *Record {
	return &Record{
		Type:  t,
		Seq:   seq,
		Time:  time.Now().UnixNano(),
		Order: o,
	}
}

func encodeSubmission(o SubmittedOrder, buf []byte) {
	binary.BigEndian.PutUint64(buf[0:8], o.ID)
	binary.BigEndian.PutUint32(buf[8:12], o.Price)
	binary.BigEndian.PutUint32(buf[12:16], o.Qty)
	buf[16] = byte(o.Side)
}

func decodeSubmission(buf []byte) SubmittedOrder {
	return SubmittedOrder{
		ID:    binary.BigEndian.Uint64(buf[0:8]),
		Price: binary.BigEndian.Uint32(buf[8:12]),
		Qty:   binary.BigEndian.Uint32(buf[12:16]),
		Side:  core.Side(buf[16]),
	}
}
