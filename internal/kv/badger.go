package kv

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// Config configures a Badger-backed Store: a Path for persistent use, an
// InMemory escape hatch for tests, and an optional structured logger.
type Config struct {
	Path       string
	InMemory   bool
	SyncWrites bool
	Logger     *slog.Logger
}

// badgerLogger adapts slog to Badger's four-method Logger interface.
type badgerLogger struct{ logger *slog.Logger }

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}
func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}
func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Badger is a Store backed by BadgerDB. It is the default persistent
// store for the six key families the index maintains.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens (creating if necessary) a BadgerDB database per cfg.
func OpenBadger(cfg Config) (*Badger, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("kv: path is required for a persistent badger store")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("kv: create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("kv: open badger database: %w", err)
	}
	return &Badger{db: db}, nil
}

// Close closes the underlying BadgerDB handle.
func (b *Badger) Close() error {
	return b.db.Close()
}

func (b *Badger) Batch(_ context.Context, ops []Op) error {
	return b.db.Update(func(txn *badger.Txn) error {
		for _, op := range ops {
			switch op.Kind {
			case OpPut:
				if err := txn.Set([]byte(op.Key), op.Value); err != nil {
					return err
				}
			case OpDel:
				if err := txn.Delete([]byte(op.Key)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (b *Badger) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(v []byte) error {
			value = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *Badger) Del(_ context.Context, key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (b *Badger) Scan(ctx context.Context, gt, lt string, limit int) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		txn := b.db.NewTransaction(false)
		defer txn.Discard()

		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		n := 0
		for it.Seek([]byte(gt)); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			if key == gt {
				continue // exclusive lower bound
			}
			if lt != "" && key >= lt {
				break
			}
			if limit > 0 && n >= limit {
				break
			}
			n++

			if err := ctx.Err(); err != nil {
				yield(Record{}, err)
				return
			}

			var value []byte
			err := it.Item().Value(func(v []byte) error {
				value = append([]byte(nil), v...)
				return nil
			})
			if err != nil {
				if !yield(Record{}, err) {
					return
				}
				continue
			}
			if !yield(Record{Key: key, Value: value}, nil) {
				return
			}
		}
	}
}
