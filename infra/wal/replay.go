package wal

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ReplayHandler is invoked once per record, in ascending sequence order,
// during startup recovery.
type ReplayHandler func(*Record) error

// Replay reads every segment in dir and invokes fn for each record in
// sequence order, returning the highest sequence number seen so the caller
// can resume its Sequencer from there. It fails closed on a non-monotonic
// or corrupt (bad CRC) record rather than silently skipping it, since a gap
// in the WAL means an order may have been partially applied and never
// durably recorded.
func Replay(dir string, fn ReplayHandler) (lastSeq uint64, err error) {
	files, err := filepath.Glob(filepath.Join(dir, "segment-*.wal"))
	if err != nil {
		return 0, err
	}

	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return lastSeq, err
		}

		for {
			rec, err := readRecord(f)
			if err != nil {
				if err == io.EOF {
					break
				}
				_ = f.Close()
				return lastSeq, err
			}

			if rec.Seq <= lastSeq {
				_ = f.Close()
				return lastSeq, fmt.Errorf("wal: non-monotonic seq %d in %s", rec.Seq, path)
			}
			lastSeq = rec.Seq

			if err := fn(rec); err != nil {
				_ = f.Close()
				return lastSeq, err
			}
		}
		_ = f.Close()
	}

	return lastSeq, nil
}

func readRecord(r io.Reader) (*Record, error) {
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	t := RecordType(header[0])
	seq := binary.BigEndian.Uint64(header[1:9])
	ts := binary.BigEndian.Uint64(header[9:17])
	order := decodeSubmission(header[17 : 17+submissionLen])

	crcBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, crcBuf); err != nil {
		return nil, err
	}
	crc := binary.BigEndian.Uint32(crcBuf)

	if !crc32valid(header, crc) {
		return nil, fmt.Errorf("wal: crc mismatch at seq %d", seq)
	}

	return &Record{
		Type:  t,
		Seq:   seq,
		Time:  int64(ts),
		Order: order,
	}, nil
}
