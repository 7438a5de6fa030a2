package repositories

import (
	apperrors "chat-threads/errors"
	"chat-threads/storage"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/protobuf/encoding/protowire"
)

// ProfileRepository is the directory of display names and avatars. Lookups
// open their own read transaction: names are resolved outside any thread
// transaction.
type ProfileRepository struct {
	store *storage.Store
	log   *slog.Logger
}

func NewProfileRepository(store *storage.Store, log *slog.Logger) *ProfileRepository {
	return &ProfileRepository{store: store, log: log}
}

type ContactProfile struct {
	ContactID   string `validate:"required"`
	DisplayName string
	Avatar      []byte
}

func contactKey(contactID string) []byte {
	return []byte("profile:contact:" + contactID)
}

func groupAvatarKey(groupID string) []byte {
	return []byte("profile:group:" + groupID)
}

func (p ProfileRepository) SaveContact(profile ContactProfile) error {
	if err := validate.Struct(profile); err != nil {
		return err
	}
	return p.store.Update(func(tx storage.ReadWriteTx) error {
		return tx.Set(contactKey(profile.ContactID), encodeContact(profile))
	})
}

func (p ProfileRepository) SaveGroupAvatar(groupID string, avatar []byte) error {
	return p.store.Update(func(tx storage.ReadWriteTx) error {
		if len(avatar) == 0 {
			return tx.Delete(groupAvatarKey(groupID))
		}
		return tx.Set(groupAvatarKey(groupID), avatar)
	})
}

func (p ProfileRepository) ContactName(contactID string) (string, bool) {
	profile, ok := p.contact(contactID)
	if !ok || profile.DisplayName == "" {
		return "", false
	}
	return profile.DisplayName, true
}

func (p ProfileRepository) ContactAvatar(contactID string) ([]byte, bool) {
	profile, ok := p.contact(contactID)
	if !ok || len(profile.Avatar) == 0 {
		return nil, false
	}
	return profile.Avatar, true
}

func (p ProfileRepository) GroupAvatar(groupID string) ([]byte, bool) {
	var avatar []byte
	err := p.store.View(func(tx storage.ReadTx) error {
		v, err := tx.Get(groupAvatarKey(groupID))
		avatar = v
		return err
	})
	if err != nil {
		p.logLookupError("group", groupID, err)
		return nil, false
	}
	return avatar, true
}

// contact degrades every failure to "unknown": a missing name must never
// prevent a thread from being displayed.
func (p ProfileRepository) contact(contactID string) (ContactProfile, bool) {
	var profile ContactProfile
	err := p.store.View(func(tx storage.ReadTx) error {
		raw, err := tx.Get(contactKey(contactID))
		if err != nil {
			return err
		}
		profile, err = decodeContact(raw)
		return err
	})
	if err != nil {
		p.logLookupError("contact", contactID, err)
		return ContactProfile{}, false
	}
	return profile, true
}

func (p ProfileRepository) logLookupError(kind, id string, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		return
	}
	p.log.Warn(fmt.Sprintf("Profile lookup failed for %s", kind), "id", id, "error", err)
}

const (
	fieldContactID protowire.Number = iota + 1
	fieldContactDisplayName
	fieldContactAvatar
)

func encodeContact(profile ContactProfile) []byte {
	var b []byte
	b = storage.AppendString(b, fieldContactID, profile.ContactID)
	b = storage.AppendString(b, fieldContactDisplayName, profile.DisplayName)
	b = storage.AppendBytes(b, fieldContactAvatar, profile.Avatar)
	return b
}

func decodeContact(raw []byte) (ContactProfile, error) {
	var profile ContactProfile
	d := storage.NewDecoder(raw)
	for d.Next() {
		switch d.Field() {
		case fieldContactID:
			profile.ContactID = d.String()
		case fieldContactDisplayName:
			profile.DisplayName = d.String()
		case fieldContactAvatar:
			profile.Avatar = d.Bytes()
		default:
			d.Skip()
		}
	}
	return profile, d.Err()
}
