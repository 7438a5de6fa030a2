package services

import (
	"chat-threads/domain"
	apperrors "chat-threads/errors"
	"chat-threads/repositories"
	"chat-threads/storage"
	"chat-threads/thread"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/samber/lo"
)

type IThreadService interface {
	GetOrCreateContactThread(contactID string) (*thread.Thread, error)
	CreateGroupThread(group thread.Group) (*thread.Thread, error)
	GetThread(id string) (*thread.Thread, error)
	Inbox() ([]*thread.Thread, error)
	Archived() ([]*thread.Thread, error)
	PostInteraction(interaction domain.Interaction) (*thread.Thread, error)
	RebuildLastMessage(t *thread.Thread) error
	Summary(t *thread.Thread) (Summary, error)
	MarkAllAsRead(t *thread.Thread) error
	ReceivedMessagesForInvalidKey(t *thread.Thread, key []byte) ([]domain.Interaction, error)
	Interactions(t *thread.Thread) ([]domain.Interaction, error)
	Archive(t *thread.Thread) error
	Unarchive(t *thread.Thread) error
	SaveDraft(t *thread.Thread, text string) error
	Draft(t *thread.Thread) (string, error)
	Name(t *thread.Thread) string
}

// ThreadService wraps each thread primitive in a transaction of its own.
// Compose the primitives directly when several writes must commit together.
type ThreadService struct {
	store      *storage.Store
	directory  thread.Directory
	log        *slog.Logger
	inboxLimit *int
}

// NewThreadService accepts a nil directory, in which case every name falls
// back to the identifier or group title. A limit that is not positive lists
// everything.
func NewThreadService(store *storage.Store, directory thread.Directory, log *slog.Logger, inboxLimit *int) *ThreadService {
	if directory == nil {
		directory = noDirectory{}
	}
	if inboxLimit != nil && *inboxLimit <= 0 {
		log.Warn("Ignoring inbox limit that is not positive", "limit", *inboxLimit)
		inboxLimit = nil
	}
	return &ThreadService{store: store, directory: directory, log: log, inboxLimit: inboxLimit}
}

type noDirectory struct{}

func (noDirectory) ContactName(string) (string, bool) {
	return "", false
}

func (noDirectory) ContactAvatar(string) ([]byte, bool) {
	return nil, false
}

func (noDirectory) GroupAvatar(string) ([]byte, bool) {
	return nil, false
}

// Summary is what a conversation list shows for one thread. Everything but
// the name is read from a single snapshot; the name comes from the directory.
type Summary struct {
	Name                 string
	LastMessageLabel     string
	HasUnreadMessages    bool
	NumberOfInteractions int
}

func (s *ThreadService) GetOrCreateContactThread(contactID string) (*thread.Thread, error) {
	var t *thread.Thread
	err := s.store.Update(func(tx storage.ReadWriteTx) error {
		existing, err := thread.FindByContact(tx, contactID)
		if err == nil {
			t = existing
			return nil
		}
		if !errors.Is(err, apperrors.ErrThreadNotFound) {
			return err
		}
		t = thread.NewContactThread(contactID)
		return thread.Insert(tx, t)
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("Contact thread ready", "thread", t.ID(), "contact", contactID)
	return t, nil
}

func (s *ThreadService) CreateGroupThread(group thread.Group) (*thread.Thread, error) {
	t := thread.NewGroupThread(group)
	if err := s.store.Update(func(tx storage.ReadWriteTx) error {
		return thread.Insert(tx, t)
	}); err != nil {
		return nil, err
	}
	s.log.Info("Group thread created", "thread", t.ID(), "group", group.ID, "members", len(group.Members))
	return t, nil
}

func (s *ThreadService) GetThread(id string) (*thread.Thread, error) {
	var t *thread.Thread
	err := s.store.View(func(tx storage.ReadTx) error {
		var err error
		t, err = thread.Load(tx, id)
		return err
	})
	return t, err
}

// Inbox lists threads not archived, most recent activity first.
func (s *ThreadService) Inbox() ([]*thread.Thread, error) {
	return s.list(func(t *thread.Thread) bool { return !t.IsArchived() })
}

// Archived lists archived threads, most recent activity first.
func (s *ThreadService) Archived() ([]*thread.Thread, error) {
	return s.list(func(t *thread.Thread) bool { return t.IsArchived() })
}

func (s *ThreadService) list(keep func(t *thread.Thread) bool) ([]*thread.Thread, error) {
	var threads []*thread.Thread
	err := s.store.View(func(tx storage.ReadTx) error {
		all, err := thread.List(tx)
		threads = lo.Filter(all, func(t *thread.Thread, _ int) bool { return keep(t) })
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].LastMessageDate().After(threads[j].LastMessageDate())
	})
	if s.inboxLimit != nil && len(threads) > *s.inboxLimit {
		s.log.Debug(fmt.Sprintf("Maximum of %d threads reached", *s.inboxLimit))
		threads = threads[:*s.inboxLimit]
	}
	return threads, nil
}

// PostInteraction appends interaction to its thread's log and, in the same
// transaction, refreshes the thread's last-message cache. The cache only moves
// forward: an interaction older than the cached one is logged but not
// summarized. An incoming interaction brings an archived thread back to the inbox.
func (s *ThreadService) PostInteraction(interaction domain.Interaction) (*thread.Thread, error) {
	var t *thread.Thread
	err := s.store.Update(func(tx storage.ReadWriteTx) error {
		var err error
		if t, err = thread.Load(tx, interaction.ThreadID); err != nil {
			return err
		}
		if err = repositories.AppendInteraction(tx, interaction); err != nil {
			return err
		}
		if _, cached := t.LastMessageID(); !cached || !interaction.Timestamp.Before(t.LastMessageDate()) {
			if err = t.UpdateWithLastMessage(tx, interaction); err != nil {
				return err
			}
		}
		if interaction.IsIncoming() && t.IsArchived() {
			return t.UnarchiveThread(tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("Interaction posted", "thread", t.ID(), "interaction", interaction.ID, "incoming", interaction.IsIncoming())
	return t, nil
}

// RebuildLastMessage resets the cached summary from the newest interaction in
// the log, repairing a cache whose update was skipped.
func (s *ThreadService) RebuildLastMessage(t *thread.Thread) error {
	return s.store.Update(func(tx storage.ReadWriteTx) error {
		latest, found, err := repositories.LatestInteraction(tx, t.ID())
		if err != nil || !found {
			return err
		}
		return t.UpdateWithLastMessage(tx, latest)
	})
}

func (s *ThreadService) Summary(t *thread.Thread) (Summary, error) {
	var (
		summary Summary
		current *thread.Thread
	)
	err := s.store.View(func(tx storage.ReadTx) error {
		var err error
		if current, err = thread.Load(tx, t.ID()); err != nil {
			return err
		}
		summary.LastMessageLabel = current.LastMessageLabel()
		if summary.HasUnreadMessages, err = current.HasUnreadMessages(tx); err != nil {
			return err
		}
		summary.NumberOfInteractions, err = current.NumberOfInteractions(tx)
		return err
	})
	if err != nil {
		return Summary{}, err
	}
	summary.Name = current.Name(s.directory)
	return summary, nil
}

func (s *ThreadService) MarkAllAsRead(t *thread.Thread) error {
	return s.store.Update(func(tx storage.ReadWriteTx) error {
		return t.MarkAllAsRead(tx)
	})
}

// ReceivedMessagesForInvalidKey reads from a snapshot of its own. Use the
// Thread method to read within a transaction you already hold.
func (s *ThreadService) ReceivedMessagesForInvalidKey(t *thread.Thread, key []byte) ([]domain.Interaction, error) {
	var messages []domain.Interaction
	err := s.store.View(func(tx storage.ReadTx) error {
		var err error
		messages, err = t.ReceivedMessagesForInvalidKey(tx, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("Messages for invalid key", "thread", t.ID(), "key", domain.KeyFingerprint(key), "count", len(messages))
	return messages, nil
}

func (s *ThreadService) Interactions(t *thread.Thread) ([]domain.Interaction, error) {
	var interactions []domain.Interaction
	err := s.store.View(func(tx storage.ReadTx) error {
		var err error
		interactions, err = repositories.ListInteractions(tx, t.ID(), nil)
		return err
	})
	return interactions, err
}

func (s *ThreadService) Archive(t *thread.Thread) error {
	return s.store.Update(func(tx storage.ReadWriteTx) error {
		return t.ArchiveThread(tx)
	})
}

func (s *ThreadService) Unarchive(t *thread.Thread) error {
	return s.store.Update(func(tx storage.ReadWriteTx) error {
		return t.UnarchiveThread(tx)
	})
}

func (s *ThreadService) SaveDraft(t *thread.Thread, text string) error {
	return s.store.Update(func(tx storage.ReadWriteTx) error {
		return t.SetDraft(tx, text)
	})
}

func (s *ThreadService) Draft(t *thread.Thread) (string, error) {
	var draft string
	err := s.store.View(func(tx storage.ReadTx) error {
		var err error
		draft, err = t.CurrentDraft(tx)
		return err
	})
	return draft, err
}

func (s *ThreadService) Name(t *thread.Thread) string {
	return t.Name(s.directory)
}
