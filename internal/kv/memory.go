package kv

import (
	"context"
	"iter"
	"sync"

	"github.com/google/btree"
)

// item is the btree.Item backing the in-memory store; ordering is by Key
// alone, matching the ordered-scan contract Store requires.
type item struct {
	Key   string
	Value []byte
}

func (a item) Less(other btree.Item) bool {
	return a.Key < other.(item).Key
}

// Memory is an in-memory Store backed by github.com/google/btree,
// intended for tests and for the query engine's own unit tests without
// an on-disk dependency.
type Memory struct {
	mu   sync.RWMutex
	tree *btree.BTree
}

// NewMemory creates an empty in-memory store. Degree 32 is a reasonable
// default for a small working set.
func NewMemory() *Memory {
	return &Memory{tree: btree.New(32)}
}

func (m *Memory) Batch(_ context.Context, ops []Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range ops {
		switch op.Kind {
		case OpPut:
			m.tree.ReplaceOrInsert(item{Key: op.Key, Value: op.Value})
		case OpDel:
			m.tree.Delete(item{Key: op.Key})
		}
	}
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v := m.tree.Get(item{Key: key})
	if v == nil {
		return nil, ErrNotFound
	}
	return v.(item).Value, nil
}

func (m *Memory) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tree.Delete(item{Key: key})
	return nil
}

func (m *Memory) Scan(ctx context.Context, gt, lt string, limit int) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		m.mu.RLock()
		// Snapshot under the read lock so the iteration below is not
		// exposed to concurrent mutation; AscendGreaterOrEqual collects
		// the copy, and the yield loop runs over it after the lock is
		// released.
		var snapshot []item
		pivot := item{Key: gt}
		m.tree.AscendGreaterOrEqual(pivot, func(i btree.Item) bool {
			it := i.(item)
			if it.Key == gt {
				return true // exclusive lower bound
			}
			if lt != "" && it.Key >= lt {
				return false
			}
			snapshot = append(snapshot, it)
			return limit <= 0 || len(snapshot) < limit+1
		})
		m.mu.RUnlock()

		for i, it := range snapshot {
			if limit > 0 && i >= limit {
				return
			}
			if err := ctx.Err(); err != nil {
				yield(Record{}, err)
				return
			}
			if !yield(Record{Key: it.Key, Value: it.Value}, nil) {
				return
			}
		}
	}
}
