// Package kv defines the ordered key-value store contract the index is
// built on, and provides two implementations: a btree-backed in-memory
// store for tests, and a BadgerDB-backed store for production.
package kv

import (
	"context"
	"errors"
	"iter"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("kv: key not found")

// OpKind distinguishes a put from a delete in a Batch.
type OpKind int

const (
	OpPut OpKind = iota
	OpDel
)

// Op is a single mutation within an atomic Batch.
type Op struct {
	Kind  OpKind
	Key   string
	Value []byte
}

// Put returns a put Op.
func Put(key string, value []byte) Op { return Op{Kind: OpPut, Key: key, Value: value} }

// Del returns a delete Op.
func Del(key string) Op { return Op{Kind: OpDel, Key: key} }

// Record is a single (key, value) pair yielded by a scan, in ascending
// key order.
type Record struct {
	Key   string
	Value []byte
}

// Store is the ordered key-value contract required from the underlying
// collaborator: atomic multi-key batch writes, point reads, point
// deletes, and ordered forward range scans. Its implementation is not
// part of the range-overlap index itself — Writer and Reader depend only
// on this interface.
type Store interface {
	// Batch applies ops atomically: all puts/deletes become visible
	// together, or none do.
	Batch(ctx context.Context, ops []Op) error

	// Get returns the value stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Del deletes key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error

	// Scan returns an ordered, lazy sequence of records with key > gt
	// (or from the start of the keyspace when gt == "") and key < lt.
	// limit <= 0 means unbounded. The sequence is a range-over-func
	// iterator: stopping early (via break) releases scan resources
	// promptly, giving callers backpressure for free.
	Scan(ctx context.Context, gt, lt string, limit int) iter.Seq2[Record, error]
}
