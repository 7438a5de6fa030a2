package repositories

import (
	"chat-threads/domain"
	apperrors "chat-threads/errors"
	"chat-threads/storage"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"google.golang.org/protobuf/encoding/protowire"
)

var validate = validator.New()

// Interactions are keyed "interaction:{thread_id}:{timestamp_padded}:{id}" so a
// prefix scan over a thread yields them in chronological order. An incoming
// unread interaction additionally owns "unread:{thread_id}:{timestamp_padded}:{id}",
// which lets unread checks touch only unread entries instead of the whole log.
const (
	interactionPrefix = "interaction:"
	unreadPrefix      = "unread:"
)

func interactionKey(i domain.Interaction) []byte {
	return []byte(interactionPrefix + interactionSuffix(i))
}

func unreadKey(i domain.Interaction) []byte {
	return []byte(unreadPrefix + interactionSuffix(i))
}

// interactionSuffix pads the timestamp as unix nanoseconds shifted by 2^63, so
// dates before 1970 still sort before later ones.
func interactionSuffix(i domain.Interaction) string {
	return fmt.Sprintf("%s:%020d:%s", i.ThreadID, uint64(i.Timestamp.UnixNano())^(1<<63), i.ID)
}

func threadPrefix(prefix, threadID string) []byte {
	return []byte(prefix + threadID + ":")
}

// AppendInteraction adds i to its thread's log.
func AppendInteraction(tx storage.ReadWriteTx, i domain.Interaction) error {
	if err := validate.Struct(i); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInteraction, err)
	}
	if strings.Contains(i.ThreadID, ":") {
		return fmt.Errorf("%w: thread id %q contains ':'", apperrors.ErrInvalidInteraction, i.ThreadID)
	}
	return putInteraction(tx, i)
}

func putInteraction(tx storage.ReadWriteTx, i domain.Interaction) error {
	if err := tx.Set(interactionKey(i), encodeInteraction(i)); err != nil {
		return err
	}
	if i.IsUnread() {
		return tx.Set(unreadKey(i), nil)
	}
	return tx.Delete(unreadKey(i))
}

// CountInteractions counts a thread's interactions without reading values.
func CountInteractions(tx storage.ReadTx, threadID string) (int, error) {
	count := 0
	err := tx.Scan(threadPrefix(interactionPrefix, threadID), storage.ScanOptions{KeysOnly: true},
		func(key, _ []byte) error {
			count++
			return nil
		})
	return count, err
}

// HasUnreadInteractions stops at the first unread index entry.
func HasUnreadInteractions(tx storage.ReadTx, threadID string) (bool, error) {
	found := false
	err := tx.Scan(threadPrefix(unreadPrefix, threadID), storage.ScanOptions{KeysOnly: true},
		func(key, _ []byte) error {
			found = true
			return storage.ErrStopScan
		})
	return found, err
}

// MarkInteractionsRead flips every unread incoming interaction of the thread
// to read and returns how many were changed. Keys are collected before any
// write because a read-write badger transaction allows a single open iterator.
func MarkInteractionsRead(tx storage.ReadWriteTx, threadID string) (int, error) {
	var unread [][]byte
	err := tx.Scan(threadPrefix(unreadPrefix, threadID), storage.ScanOptions{KeysOnly: true},
		func(key, _ []byte) error {
			unread = append(unread, key)
			return nil
		})
	if err != nil {
		return 0, err
	}

	for _, idx := range unread {
		primary := []byte(interactionPrefix + strings.TrimPrefix(string(idx), unreadPrefix))
		raw, err := tx.Get(primary)
		if err != nil {
			return 0, fmt.Errorf("unread index points to %s: %w", primary, err)
		}
		interaction, err := decodeInteraction(raw)
		if err != nil {
			return 0, err
		}
		interaction.Read = true
		if err = putInteraction(tx, interaction); err != nil {
			return 0, err
		}
	}
	return len(unread), nil
}

// ListInteractions returns the thread's interactions accepted by filter, oldest
// first. A nil filter accepts everything.
func ListInteractions(tx storage.ReadTx, threadID string, filter func(domain.Interaction) bool) ([]domain.Interaction, error) {
	var interactions []domain.Interaction
	err := tx.Scan(threadPrefix(interactionPrefix, threadID), storage.ScanOptions{},
		func(key, value []byte) error {
			interaction, err := decodeInteraction(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			if filter == nil || filter(interaction) {
				interactions = append(interactions, interaction)
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return interactions, nil
}

// LatestInteraction returns the newest interaction of the thread, if any.
func LatestInteraction(tx storage.ReadTx, threadID string) (domain.Interaction, bool, error) {
	var (
		latest domain.Interaction
		found  bool
	)
	err := tx.Scan(threadPrefix(interactionPrefix, threadID), storage.ScanOptions{Reverse: true},
		func(key, value []byte) error {
			interaction, err := decodeInteraction(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			latest, found = interaction, true
			return storage.ErrStopScan
		})
	return latest, found, err
}

const (
	fieldInteractionID protowire.Number = iota + 1
	fieldInteractionThreadID
	fieldInteractionTimestamp
	fieldInteractionDirection
	fieldInteractionRead
	fieldInteractionKind
	fieldInteractionBody
	fieldInteractionContentType
	fieldInteractionAttachment
	fieldInteractionIdentityKey
)

func encodeInteraction(i domain.Interaction) []byte {
	var b []byte
	b = storage.AppendString(b, fieldInteractionID, i.ID)
	b = storage.AppendString(b, fieldInteractionThreadID, i.ThreadID)
	b = storage.AppendTime(b, fieldInteractionTimestamp, i.Timestamp)
	b = storage.AppendVarint(b, fieldInteractionDirection, uint64(i.Direction))
	b = storage.AppendBool(b, fieldInteractionRead, i.Read)
	b = storage.AppendVarint(b, fieldInteractionKind, uint64(i.Kind))
	b = storage.AppendString(b, fieldInteractionBody, i.Body)
	b = storage.AppendString(b, fieldInteractionContentType, i.ContentType)
	b = storage.AppendBytes(b, fieldInteractionAttachment, i.Attachment)
	b = storage.AppendBytes(b, fieldInteractionIdentityKey, i.IdentityKey)
	return b
}

func decodeInteraction(raw []byte) (domain.Interaction, error) {
	var i domain.Interaction
	d := storage.NewDecoder(raw)
	for d.Next() {
		switch d.Field() {
		case fieldInteractionID:
			i.ID = d.String()
		case fieldInteractionThreadID:
			i.ThreadID = d.String()
		case fieldInteractionTimestamp:
			i.Timestamp = d.Time()
		case fieldInteractionDirection:
			i.Direction = domain.Direction(d.Varint())
		case fieldInteractionRead:
			i.Read = d.Bool()
		case fieldInteractionKind:
			i.Kind = domain.Kind(d.Varint())
		case fieldInteractionBody:
			i.Body = d.String()
		case fieldInteractionContentType:
			i.ContentType = d.String()
		case fieldInteractionAttachment:
			i.Attachment = d.Bytes()
		case fieldInteractionIdentityKey:
			i.IdentityKey = d.Bytes()
		default:
			d.Skip()
		}
	}
	return i, d.Err()
}
