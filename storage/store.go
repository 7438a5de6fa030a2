// Package storage adapts BadgerDB to the read and read-write transaction
// handles consumed by the thread layer. Callers open transactions here and
// pass them explicitly to every operation that needs one.
package storage

import (
	apperrors "chat-threads/errors"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// ErrStopScan ends a Scan early. Scan returns nil when fn returns it.
var ErrStopScan = errors.New("stop scan")

const defaultConflictRetries = 3

type ScanOptions struct {
	Reverse  bool
	KeysOnly bool
}

// ReadTx is a snapshot-consistent view of the store.
type ReadTx interface {
	Get(key []byte) ([]byte, error)
	// Scan visits every key under prefix in lexicographical order.
	// value is nil when opts.KeysOnly is set.
	Scan(prefix []byte, opts ScanOptions, fn func(key, value []byte) error) error
}

// ReadWriteTx is an exclusive write transaction.
type ReadWriteTx interface {
	ReadTx
	Set(key, value []byte) error
	Delete(key []byte) error
	// AfterCommit registers fn to run once the transaction has been committed.
	// Hooks never run when the transaction is discarded or fails to commit.
	AfterCommit(fn func())
	// OnRollback registers fn to run when the transaction is discarded, fails
	// to commit or is replayed after a conflict. Hooks run in reverse order of
	// registration.
	OnRollback(fn func())
}

type Store struct {
	db                 *badger.DB
	log                *slog.Logger
	maxConflictRetries int
}

func NewStore(db *badger.DB, log *slog.Logger, maxConflictRetries int) *Store {
	if maxConflictRetries <= 0 {
		maxConflictRetries = defaultConflictRetries
	}
	return &Store{db: db, log: log, maxConflictRetries: maxConflictRetries}
}

// Open opens a BadgerDB at path and wraps it.
func Open(path string, log *slog.Logger, maxConflictRetries int) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("database opening failed: %w", err)
	}
	return NewStore(db, log, maxConflictRetries), nil
}

func (s *Store) Close() error {
	s.log.Info("Closing BadgerDB...")
	return s.db.Close()
}

// View runs fn inside a read-only snapshot transaction.
func (s *Store) View(fn func(tx ReadTx) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn})
	})
}

// Update runs fn inside a read-write transaction and commits it.
// The whole closure is replayed when badger reports a write conflict,
// so in-memory side effects of fn must be undone through OnRollback.
func (s *Store) Update(fn func(tx ReadWriteTx) error) error {
	var err error
	for attempt := 1; attempt <= s.maxConflictRetries; attempt++ {
		tx := &badgerTx{}
		err = s.db.Update(func(txn *badger.Txn) error {
			tx.txn = txn
			return fn(tx)
		})
		if err == nil {
			for _, hook := range tx.commitHooks {
				hook()
			}
			return nil
		}
		tx.rollback()
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debug("Transaction conflict, retrying", "attempt", attempt)
	}
	return fmt.Errorf("transaction aborted after %d conflicts: %w", s.maxConflictRetries, err)
}

type badgerTx struct {
	txn           *badger.Txn
	commitHooks   []func()
	rollbackHooks []func()
}

func (b *badgerTx) Get(key []byte) ([]byte, error) {
	item, err := b.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// Scan iterates with badger's prefix option so only matching tables are read.
// For reverse scans the seek key is the prefix followed by 0xFF, which sorts
// after every key carrying that prefix.
func (b *badgerTx) Scan(prefix []byte, opts ScanOptions, fn func(key, value []byte) error) error {
	options := badger.DefaultIteratorOptions
	options.Reverse = opts.Reverse
	options.PrefetchValues = !opts.KeysOnly
	options.Prefix = prefix
	it := b.txn.NewIterator(options)
	defer it.Close()

	seekKey := prefix
	if opts.Reverse {
		seekKey = append(append([]byte{}, prefix...), 0xFF)
	}
	for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		var value []byte
		if !opts.KeysOnly {
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			value = v
		}
		if err := fn(item.KeyCopy(nil), value); err != nil {
			if errors.Is(err, ErrStopScan) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (b *badgerTx) Set(key, value []byte) error {
	return b.txn.Set(key, value)
}

func (b *badgerTx) Delete(key []byte) error {
	return b.txn.Delete(key)
}

func (b *badgerTx) AfterCommit(fn func()) {
	b.commitHooks = append(b.commitHooks, fn)
}

func (b *badgerTx) OnRollback(fn func()) {
	b.rollbackHooks = append(b.rollbackHooks, fn)
}

func (b *badgerTx) rollback() {
	for i := len(b.rollbackHooks) - 1; i >= 0; i-- {
		b.rollbackHooks[i]()
	}
}
