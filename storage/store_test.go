package storage

import (
	apperrors "chat-threads/errors"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db, logs.GetLoggerFromLevel(slog.LevelDebug), 0)
}

func TestStore_Get_Missing_Key_Returns_ErrNotFound(t *testing.T) {
	req := require.New(t)
	store := openStore(t)

	err := store.View(func(tx ReadTx) error {
		_, err := tx.Get([]byte("missing"))
		return err
	})

	req.ErrorIs(err, apperrors.ErrNotFound)
}

func TestStore_Scan_Orders_Keys_Within_Prefix(t *testing.T) {
	req := require.New(t)
	store := openStore(t)

	err := store.Update(func(tx ReadWriteTx) error {
		for _, k := range []string{"a:2", "a:1", "a:3", "b:1"} {
			if err := tx.Set([]byte(k), []byte("v"+k)); err != nil {
				return err
			}
		}
		return nil
	})
	req.NoError(err)

	var forward, backward []string
	err = store.View(func(tx ReadTx) error {
		if err := tx.Scan([]byte("a:"), ScanOptions{}, func(key, value []byte) error {
			req.Equal("v"+string(key), string(value))
			forward = append(forward, string(key))
			return nil
		}); err != nil {
			return err
		}
		return tx.Scan([]byte("a:"), ScanOptions{Reverse: true, KeysOnly: true}, func(key, value []byte) error {
			req.Nil(value)
			backward = append(backward, string(key))
			return nil
		})
	})
	req.NoError(err)
	req.Equal([]string{"a:1", "a:2", "a:3"}, forward)
	req.Equal([]string{"a:3", "a:2", "a:1"}, backward)
}

func TestStore_Scan_Stops_Early(t *testing.T) {
	req := require.New(t)
	store := openStore(t)
	req.NoError(store.Update(func(tx ReadWriteTx) error {
		_ = tx.Set([]byte("p:1"), []byte("x"))
		return tx.Set([]byte("p:2"), []byte("y"))
	}))

	visited := 0
	err := store.View(func(tx ReadTx) error {
		return tx.Scan([]byte("p:"), ScanOptions{}, func(key, value []byte) error {
			visited++
			return ErrStopScan
		})
	})

	req.NoError(err)
	req.Equal(1, visited)
}

func TestStore_AfterCommit_Runs_Only_On_Commit(t *testing.T) {
	req := require.New(t)
	store := openStore(t)
	boom := errors.New("boom")

	committed := false
	req.NoError(store.Update(func(tx ReadWriteTx) error {
		tx.AfterCommit(func() { committed = true })
		return tx.Set([]byte("k"), []byte("v"))
	}))
	req.True(committed)

	aborted := false
	err := store.Update(func(tx ReadWriteTx) error {
		tx.AfterCommit(func() { aborted = true })
		if err := tx.Set([]byte("k"), []byte("other")); err != nil {
			return err
		}
		return boom
	})
	req.ErrorIs(err, boom)
	req.False(aborted)

	// The aborted write is not visible
	req.NoError(store.View(func(tx ReadTx) error {
		v, err := tx.Get([]byte("k"))
		req.Equal("v", string(v))
		return err
	}))
}

func TestStore_OnRollback_Runs_In_Reverse_On_Abort(t *testing.T) {
	req := require.New(t)
	store := openStore(t)
	boom := errors.New("boom")

	var undone []int
	req.NoError(store.Update(func(tx ReadWriteTx) error {
		tx.OnRollback(func() { undone = append(undone, 0) })
		return tx.Set([]byte("k"), []byte("v"))
	}))
	req.Empty(undone)

	err := store.Update(func(tx ReadWriteTx) error {
		tx.OnRollback(func() { undone = append(undone, 1) })
		tx.OnRollback(func() { undone = append(undone, 2) })
		return boom
	})
	req.ErrorIs(err, boom)
	req.Equal([]int{2, 1}, undone)
}

func TestStore_Update_Rolls_Back_Before_Replaying_A_Conflict(t *testing.T) {
	req := require.New(t)
	store := openStore(t)
	req.NoError(store.Update(func(tx ReadWriteTx) error {
		return tx.Set([]byte("k"), []byte("v"))
	}))

	attempts, rollbacks, commits := 0, 0, 0
	req.NoError(store.Update(func(tx ReadWriteTx) error {
		attempts++
		tx.OnRollback(func() { rollbacks++ })
		tx.AfterCommit(func() { commits++ })
		if _, err := tx.Get([]byte("k")); err != nil {
			return err
		}
		// Given a concurrent writer committing the key read above, once
		if attempts == 1 {
			req.NoError(store.db.Update(func(txn *badger.Txn) error {
				return txn.Set([]byte("k"), []byte("concurrent"))
			}))
		}
		return tx.Set([]byte("k"), []byte("mine"))
	}))

	req.Equal(2, attempts)
	req.Equal(1, rollbacks)
	req.Equal(1, commits)
}

func TestDecoder_Roundtrip_And_Skips_Unknown_Fields(t *testing.T) {
	req := require.New(t)
	at := time.Date(2014, 11, 16, 10, 0, 0, 0, time.UTC)

	var b []byte
	b = AppendString(b, 1, "thread-1")
	b = AppendVarint(b, 99, 42)
	b = AppendTime(b, 2, at)
	b = AppendBool(b, 3, true)
	b = AppendBytes(b, 4, []byte{0x01, 0x02})
	b = AppendString(b, 5, "")

	var (
		id   string
		when time.Time
		flag bool
		raw  []byte
	)
	d := NewDecoder(b)
	for d.Next() {
		switch d.Field() {
		case 1:
			id = d.String()
		case 2:
			when = d.Time()
		case 3:
			flag = d.Bool()
		case 4:
			raw = d.Bytes()
		default:
			d.Skip()
		}
	}

	req.NoError(d.Err())
	req.Equal("thread-1", id)
	req.True(at.Equal(when))
	req.True(flag)
	req.Equal([]byte{0x01, 0x02}, raw)
}

func TestDecoder_Reports_Corrupt_Record(t *testing.T) {
	req := require.New(t)
	b := AppendString(nil, 1, "thread-1")

	d := NewDecoder(b[:len(b)-2])
	for d.Next() {
		_ = d.String()
	}

	req.ErrorIs(d.Err(), apperrors.ErrCorruptRecord)
}
