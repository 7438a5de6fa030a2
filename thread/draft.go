package thread

import (
	apperrors "chat-threads/errors"
	"chat-threads/storage"
	"errors"
)

// CurrentDraft returns the persisted draft, or an empty string.
func (t *Thread) CurrentDraft(tx storage.ReadTx) (string, error) {
	persisted, err := Load(tx, t.id)
	if errors.Is(err, apperrors.ErrThreadNotFound) {
		return t.draft, nil
	}
	if err != nil {
		return "", err
	}
	return persisted.draft, nil
}

// SetDraft replaces the draft; the last writer wins. An empty text clears it.
func (t *Thread) SetDraft(tx storage.ReadWriteTx, text string) error {
	return t.mutate(tx, func(current *Thread) {
		current.draft = text
	})
}
