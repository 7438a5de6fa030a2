// Package domain contains the message-log entities a thread summarizes.
// Interactions are owned by the log; threads only read them and flip their
// read state.
package domain

import (
	"chat-threads/domain/mimetypes"
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/blake2b"
)

const previewMaxRunes = 120

type Direction int

const (
	Outgoing Direction = iota
	Incoming
)

type Kind int

const (
	KindText Kind = iota
	KindAttachment
	// KindInvalidIdentityKey marks an incoming message that could not be
	// decrypted because the sender's identity key changed.
	KindInvalidIdentityKey
	KindInfo
)

// Interaction is a single event of a thread's message log.
type Interaction struct {
	ID          string    `validate:"required"`
	ThreadID    string    `validate:"required"`
	Timestamp   time.Time `validate:"required"`
	Direction   Direction `validate:"oneof=0 1"`
	Read        bool
	Kind        Kind `validate:"oneof=0 1 2 3"`
	Body        string
	ContentType string
	// Attachment holds a leading sample of the attachment, enough to sniff its type.
	Attachment  []byte
	IdentityKey []byte
}

func (i Interaction) IsIncoming() bool {
	return i.Direction == Incoming
}

// IsUnread is true for incoming interactions not yet read. Outgoing
// interactions are never unread.
func (i Interaction) IsUnread() bool {
	return i.IsIncoming() && !i.Read
}

// PreviewText is the one-line summary shown in a conversation list.
func (i Interaction) PreviewText() string {
	switch i.Kind {
	case KindAttachment:
		label := attachmentLabel(i.ContentType, i.Attachment)
		if i.Body == "" {
			return label
		}
		return label + ": " + truncate(i.Body)
	case KindInvalidIdentityKey:
		return "Received a message encrypted with a changed safety number"
	default:
		return truncate(i.Body)
	}
}

func attachmentLabel(contentType string, sample []byte) string {
	switch mimetypes.Resolve(contentType, sample) {
	case mimetypes.Image:
		return "Photo"
	case mimetypes.Video:
		return "Video"
	case mimetypes.Audio:
		return "Audio"
	default:
		return "Attachment"
	}
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= previewMaxRunes {
		return s
	}
	return string([]rune(s)[:previewMaxRunes]) + "…"
}

// KeyFingerprint returns a short blake2b digest of an identity key, safe to log.
func KeyFingerprint(key []byte) string {
	if len(key) == 0 {
		return ""
	}
	sum := blake2b.Sum256(key)
	return hex.EncodeToString(sum[:8])
}
