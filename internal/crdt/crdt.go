// Package crdt defines how the sync engine talks to the CRDT merge
// function. Document payloads and change sets are opaque byte blobs
// produced by clients; the engine only requires that merging is
// deterministic and commutative so that every replica converges on the
// same bytes regardless of arrival order.
package crdt

import "errors"

var ErrBadSnapshot = errors.New("malformed document snapshot")

// Merger applies externally produced change sets to an encoded document
// snapshot and returns the new snapshot.
type Merger interface {
	Merge(snapshot []byte, changes [][]byte) ([]byte, error)
}

// MergerFunc adapts a plain function to the Merger interface.
type MergerFunc func(snapshot []byte, changes [][]byte) ([]byte, error)

func (f MergerFunc) Merge(snapshot []byte, changes [][]byte) ([]byte, error) {
	return f(snapshot, changes)
}
