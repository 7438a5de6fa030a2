package thread

import (
	"chat-threads/storage"
	"time"
)

// A thread is either in the inbox (no archival date) or archived at a date.
// Archiving an archived thread refreshes the date; unarchiving an inbox
// thread does nothing.

// ArchivalDate returns when the thread was archived. A thread in the inbox has none.
func (t *Thread) ArchivalDate() (time.Time, bool) {
	if t.archivedAt == nil {
		return time.Time{}, false
	}
	return *t.archivedAt, true
}

func (t *Thread) IsArchived() bool {
	return t.archivedAt != nil
}

// ArchiveThread archives the thread now.
func (t *Thread) ArchiveThread(tx storage.ReadWriteTx) error {
	return t.ArchiveThreadAt(tx, time.Now())
}

// ArchiveThreadAt archives the thread at referenceDate. It exists to migrate
// threads archived by older data; user actions go through ArchiveThread.
func (t *Thread) ArchiveThreadAt(tx storage.ReadWriteTx, referenceDate time.Time) error {
	at := referenceDate.UTC()
	return t.mutate(tx, func(current *Thread) {
		current.archivedAt = &at
	})
}

// UnarchiveThread brings the thread back to the inbox.
func (t *Thread) UnarchiveThread(tx storage.ReadWriteTx) error {
	return t.mutate(tx, func(current *Thread) {
		current.archivedAt = nil
	})
}
