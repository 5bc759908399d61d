package wal

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"time"
)

// headerLen is [type:1][seq:8][time:8][payload:17], followed by a 4-byte
// CRC over the whole thing.
const headerLen = 1 + 8 + 8 + submissionLen
const frameLen = headerLen + 4

type Config struct {
	Dir             string
	SegmentSize     int64
	SegmentDuration time.Duration
}

// WAL is a CRC-framed, segment-rotated append-only log of order submission
// intents, written before a request reaches runtime.Runner so a crash
// between acceptance and matching is recoverable by Replay.
type WAL struct {
	dir        string
	segSize    int64
	current    *segment
	segIndex   int
	lastRotate time.Time
}

func Open(cfg Config) (*WAL, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	seg, err := openSegment(cfg.Dir, 0)
	if err != nil {
		return nil, err
	}

	return &WAL{
		dir:        cfg.Dir,
		segSize:    cfg.SegmentSize,
		current:    seg,
		lastRotate: time.Now(),
	}, nil
}

func (w *WAL) Append(r *Record) error {
	buf := make([]byte, frameLen)

	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint64(buf[1:9], r.Seq)
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.Time))
	encodeSubmission(r.Order, buf[17:17+submissionLen])

	crc := crc32sum(buf[:headerLen])
	binary.BigEndian.PutUint32(buf[headerLen:], crc)

	if err := w.current.append(buf); err != nil {
		return err
	}

	if w.current.offset >= w.segSize {
		return w.rotate()
	}
	return nil
}

func (w *WAL) rotate() error {
	if err := w.current.close(); err != nil {
		return err
	}
	w.segIndex++

	seg, err := openSegment(w.dir, w.segIndex)
	if err != nil {
		return err
	}

	w.current = seg
	w.lastRotate = time.Now()
	return nil
}

func (w *WAL) Close() error {
	return w.current.close()
}

// TruncateBefore removes segments whose highest sequence number is <= seq.
// Segments that cannot be scanned are left in place.
func (w *WAL) TruncateBefore(seq uint64) error {
	files, err := filepath.Glob(filepath.Join(w.dir, "segment-*.wal"))
	if err != nil {
		return err
	}

	for _, path := range files {
		maxSeq, err := maxSeqInSegment(path)
		if err != nil {
			continue
		}
		if maxSeq <= seq {
			_ = os.Remove(path)
		}
	}
	return nil
}
