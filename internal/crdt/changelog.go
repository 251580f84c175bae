package crdt

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
)

// ChangeLog is the default Merger. A snapshot is a set of changes
// encoded as length-prefixed records ordered by content hash; merging is
// set union. That makes Merge commutative, associative and idempotent,
// so concurrent writers converge without coordination. It carries no
// editing semantics of its own; real deployments plug in an actual
// CRDT implementation behind the Merger interface.
type ChangeLog struct{}

func NewChangeLog() ChangeLog {
	return ChangeLog{}
}

func (ChangeLog) Merge(snapshot []byte, changes [][]byte) ([]byte, error) {
	existing, err := decodeRecords(snapshot)
	if err != nil {
		return nil, err
	}

	seen := make(map[[32]byte]bool, len(existing)+len(changes))
	merged := make([][]byte, 0, len(existing)+len(changes))
	for _, rec := range existing {
		seen[sha256.Sum256(rec)] = true
		merged = append(merged, rec)
	}
	for _, change := range changes {
		sum := sha256.Sum256(change)
		if seen[sum] {
			continue
		}
		seen[sum] = true
		merged = append(merged, change)
	}

	sort.Slice(merged, func(i, j int) bool {
		a := sha256.Sum256(merged[i])
		b := sha256.Sum256(merged[j])
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})

	return encodeRecords(merged), nil
}

func encodeRecords(records [][]byte) []byte {
	size := 0
	for _, rec := range records {
		size += 4 + len(rec)
	}
	out := make([]byte, 0, size)
	var prefix [4]byte
	for _, rec := range records {
		binary.BigEndian.PutUint32(prefix[:], uint32(len(rec)))
		out = append(out, prefix[:]...)
		out = append(out, rec...)
	}
	return out
}

func decodeRecords(snapshot []byte) ([][]byte, error) {
	var records [][]byte
	for len(snapshot) > 0 {
		if len(snapshot) < 4 {
			return nil, fmt.Errorf("%w: truncated length prefix", ErrBadSnapshot)
		}
		n := binary.BigEndian.Uint32(snapshot[:4])
		snapshot = snapshot[4:]
		if uint32(len(snapshot)) < n {
			return nil, fmt.Errorf("%w: record shorter than its prefix", ErrBadSnapshot)
		}
		records = append(records, snapshot[:n])
		snapshot = snapshot[n:]
	}
	return records, nil
}

// Encode builds a snapshot from a set of changes. Clients use the same
// record layout when creating a document.
func Encode(changes ...[]byte) []byte {
	return encodeRecords(changes)
}

// Decode returns the individual change records of a snapshot.
func Decode(snapshot []byte) ([][]byte, error) {
	return decodeRecords(snapshot)
}
