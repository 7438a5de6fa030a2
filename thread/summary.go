package thread

import (
	"bytes"
	"chat-threads/domain"
	"chat-threads/repositories"
	"chat-threads/storage"
	"time"
)

// NumberOfInteractions counts the thread's interactions in the log as seen by tx.
func (t *Thread) NumberOfInteractions(tx storage.ReadTx) (int, error) {
	return repositories.CountInteractions(tx, t.id)
}

// HasUnreadMessages reports whether at least one incoming interaction is unread.
func (t *Thread) HasUnreadMessages(tx storage.ReadTx) (bool, error) {
	return repositories.HasUnreadInteractions(tx, t.id)
}

// MarkAllAsRead marks every unread incoming interaction read. Calling it again
// without new interactions changes nothing.
func (t *Thread) MarkAllAsRead(tx storage.ReadWriteTx) error {
	_, err := repositories.MarkInteractionsRead(tx, t.id)
	return err
}

// ReceivedMessagesForInvalidKey returns, oldest first, the incoming messages
// that failed to decrypt because of the given identity key. Messages carrying
// another key or no key are left out; an empty key matches nothing.
func (t *Thread) ReceivedMessagesForInvalidKey(tx storage.ReadTx, key []byte) ([]domain.Interaction, error) {
	if len(key) == 0 {
		return nil, nil
	}
	return repositories.ListInteractions(tx, t.id, func(i domain.Interaction) bool {
		return i.IsIncoming() &&
			i.Kind == domain.KindInvalidIdentityKey &&
			bytes.Equal(i.IdentityKey, key)
	})
}

// LastMessageDate is the date of the cached last message, or the creation
// date when nothing was cached yet.
func (t *Thread) LastMessageDate() time.Time {
	if t.lastMessage == nil {
		return t.createdAt
	}
	return t.lastMessage.At
}

// LastMessageLabel is the cached preview, empty when nothing was cached yet.
func (t *Thread) LastMessageLabel() string {
	if t.lastMessage == nil {
		return ""
	}
	return t.lastMessage.Preview
}

func (t *Thread) LastMessageID() (string, bool) {
	if t.lastMessage == nil {
		return "", false
	}
	return t.lastMessage.InteractionID, true
}

// UpdateWithLastMessage overwrites the cached summary with message. It does not
// compare against the cached date: the caller guarantees message is the most
// recent interaction accepted into the thread.
func (t *Thread) UpdateWithLastMessage(tx storage.ReadWriteTx, message domain.Interaction) error {
	summary := LastMessage{
		InteractionID: message.ID,
		At:            message.Timestamp.UTC(),
		Preview:       message.PreviewText(),
	}
	return t.mutate(tx, func(current *Thread) {
		current.lastMessage = &summary
	})
}
