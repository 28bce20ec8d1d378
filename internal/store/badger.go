package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/dshills/consrope/internal/engine/rope"
)

// BadgerConfig configures a Badger store.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in memory.
	InMemory bool

	// SyncWrites flushes every write to disk.
	SyncWrites bool

	// Logger receives Badger's internal log lines. Nil silences them.
	Logger Logger
}

// badgerLogger adapts Logger to badger.Logger.
type badgerLogger struct {
	logger Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(format, args...)
}

// Badger is a Store backed by a Badger key/value database.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens a Badger database.
func OpenBadger(cfg BadgerConfig) (*Badger, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Badger{db: db}, nil
}

// Put implements Store.
func (b *Badger) Put(ctx context.Context, key string, value rope.StringLike) error {
	if err := checkKey("put", key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(value)
	if err != nil {
		return &KeyError{Op: "put", Key: key, Err: err}
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return &KeyError{Op: "put", Key: key, Err: err}
	}
	return nil
}

// Get implements Store.
func (b *Badger) Get(ctx context.Context, key string) (*rope.Rope, error) {
	if err := checkKey("get", key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, &KeyError{Op: "get", Key: key, Err: ErrNotFound}
	}
	if err != nil {
		return nil, &KeyError{Op: "get", Key: key, Err: err}
	}
	return decode(data)
}

// Delete implements Store.
func (b *Badger) Delete(ctx context.Context, key string) error {
	if err := checkKey("delete", key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return &KeyError{Op: "delete", Key: key, Err: ErrNotFound}
	}
	if err != nil {
		return &KeyError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Keys implements Store. Badger iterates keys in byte order.
func (b *Badger) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

// Close implements Store.
func (b *Badger) Close() error {
	return b.db.Close()
}
