package repositories

import (
	"bytes"
	"chat-threads/domain"
	apperrors "chat-threads/errors"
	"chat-threads/storage"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return storage.NewStore(db, logs.GetLoggerFromLevel(slog.LevelDebug), 0)
}

func interaction(threadID string, at time.Time, direction domain.Direction, read bool) domain.Interaction {
	return domain.Interaction{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		Timestamp: at,
		Direction: direction,
		Read:      read,
		Kind:      domain.KindText,
		Body:      "this message will self destruct in 5 seconds",
	}
}

func appendAll(t *testing.T, store *storage.Store, interactions ...domain.Interaction) {
	t.Helper()
	require.NoError(t, store.Update(func(tx storage.ReadWriteTx) error {
		for _, i := range interactions {
			if err := AppendInteraction(tx, i); err != nil {
				return err
			}
		}
		return nil
	}))
}

func Test_Append_And_List_Sorted_Interactions(t *testing.T) {
	req := require.New(t)
	store := openStore(t)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// Given interactions stored out of order, and one in another thread
	third := interaction("thread-1", at.Add(2*time.Minute), domain.Incoming, false)
	first := interaction("thread-1", at, domain.Outgoing, true)
	second := interaction("thread-1", at.Add(1*time.Minute), domain.Incoming, true)
	appendAll(t, store, third, first, second, interaction("thread-10", at, domain.Incoming, false))

	// When listing the thread
	var listed []domain.Interaction
	err := store.View(func(tx storage.ReadTx) error {
		var err error
		listed, err = ListInteractions(tx, "thread-1", nil)
		return err
	})

	// Then only its interactions come back, oldest first
	req.NoError(err)
	req.Equal([]domain.Interaction{first, second, third}, listed)
}

func Test_Interactions_Before_1970_Keep_Their_Order(t *testing.T) {
	req := require.New(t)
	store := openStore(t)
	epoch := time.Unix(0, 0).UTC()

	older := interaction("thread-1", epoch.Add(-48*time.Hour), domain.Incoming, true)
	old := interaction("thread-1", epoch.Add(-time.Hour), domain.Incoming, true)
	recent := interaction("thread-1", epoch.Add(time.Hour), domain.Incoming, true)
	appendAll(t, store, recent, old, older)

	req.NoError(store.View(func(tx storage.ReadTx) error {
		listed, err := ListInteractions(tx, "thread-1", nil)
		req.NoError(err)
		req.Equal([]domain.Interaction{older, old, recent}, listed)

		latest, found, err := LatestInteraction(tx, "thread-1")
		req.True(found)
		req.Equal(recent, latest)
		return err
	}))
}

func Test_Append_Rejects_Invalid_Interaction(t *testing.T) {
	req := require.New(t)
	store := openStore(t)

	err := store.Update(func(tx storage.ReadWriteTx) error {
		return AppendInteraction(tx, domain.Interaction{ThreadID: "thread-1"})
	})
	req.ErrorIs(err, apperrors.ErrInvalidInteraction)

	err = store.Update(func(tx storage.ReadWriteTx) error {
		return AppendInteraction(tx, interaction("a:b", time.Now().UTC(), domain.Incoming, false))
	})
	req.ErrorIs(err, apperrors.ErrInvalidInteraction)
}

func Test_Mark_Read_Keeps_Count_And_Clears_Unread(t *testing.T) {
	req := require.New(t)
	store := openStore(t)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// Given 3 unread incoming and 2 read interactions
	appendAll(t, store,
		interaction("thread-1", at, domain.Incoming, false),
		interaction("thread-1", at.Add(time.Second), domain.Incoming, false),
		interaction("thread-1", at.Add(2*time.Second), domain.Incoming, false),
		interaction("thread-1", at.Add(3*time.Second), domain.Incoming, true),
		interaction("thread-1", at.Add(4*time.Second), domain.Outgoing, true),
	)
	req.NoError(store.View(func(tx storage.ReadTx) error {
		unread, err := HasUnreadInteractions(tx, "thread-1")
		req.True(unread)
		return err
	}))

	// When marking everything read
	var marked int
	req.NoError(store.Update(func(tx storage.ReadWriteTx) error {
		var err error
		marked, err = MarkInteractionsRead(tx, "thread-1")
		return err
	}))

	// Then nothing is unread and nothing was deleted
	req.Equal(3, marked)
	req.NoError(store.View(func(tx storage.ReadTx) error {
		unread, err := HasUnreadInteractions(tx, "thread-1")
		req.NoError(err)
		req.False(unread)
		count, err := CountInteractions(tx, "thread-1")
		req.NoError(err)
		req.Equal(5, count)
		listed, err := ListInteractions(tx, "thread-1", func(i domain.Interaction) bool { return !i.Read })
		req.Empty(listed)
		return err
	}))

	// And a second pass is a no-op
	req.NoError(store.Update(func(tx storage.ReadWriteTx) error {
		var err error
		marked, err = MarkInteractionsRead(tx, "thread-1")
		return err
	}))
	req.Zero(marked)
}

func Test_Latest_Interaction(t *testing.T) {
	req := require.New(t)
	store := openStore(t)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	req.NoError(store.View(func(tx storage.ReadTx) error {
		_, found, err := LatestInteraction(tx, "thread-1")
		req.False(found)
		return err
	}))

	newest := interaction("thread-1", at.Add(time.Hour), domain.Outgoing, true)
	appendAll(t, store, interaction("thread-1", at, domain.Incoming, false), newest)

	req.NoError(store.View(func(tx storage.ReadTx) error {
		latest, found, err := LatestInteraction(tx, "thread-1")
		req.True(found)
		req.Equal(newest, latest)
		return err
	}))
}

func Test_List_Filters_By_Identity_Key(t *testing.T) {
	req := require.New(t)
	store := openStore(t)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	key := []byte("key-A")

	matching := interaction("thread-1", at, domain.Incoming, false)
	matching.Kind, matching.IdentityKey = domain.KindInvalidIdentityKey, key
	other := interaction("thread-1", at.Add(time.Second), domain.Incoming, false)
	other.Kind, other.IdentityKey = domain.KindInvalidIdentityKey, []byte("key-B")
	appendAll(t, store, matching, other)

	req.NoError(store.View(func(tx storage.ReadTx) error {
		listed, err := ListInteractions(tx, "thread-1", func(i domain.Interaction) bool {
			return bytes.Equal(i.IdentityKey, key)
		})
		req.Equal([]domain.Interaction{matching}, listed)
		return err
	}))
}
