package thread

import (
	apperrors "chat-threads/errors"
	"chat-threads/storage"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"google.golang.org/protobuf/encoding/protowire"
)

var validate = validator.New()

// Thread records live under "thread:{id}". Contact and group threads are also
// reachable from "thread_contact:{contact_id}" and "thread_group:{group_id}",
// both holding the thread id.
const threadPrefix = "thread:"

func threadKey(id string) []byte {
	return []byte(threadPrefix + id)
}

func contactIndexKey(contactID string) []byte {
	return []byte("thread_contact:" + contactID)
}

func groupIndexKey(groupID string) []byte {
	return []byte("thread_group:" + groupID)
}

type contactRequest struct {
	Identifier string `validate:"required,excludes=:"`
}

type groupRequest struct {
	ID      string   `validate:"required,excludes=:"`
	Title   string   `validate:"max=256"`
	Members []string `validate:"dive,required"`
}

func validateVariant(v Variant) error {
	var err error
	switch v := v.(type) {
	case Contact:
		err = validate.Struct(contactRequest{Identifier: v.Identifier})
	case Group:
		err = validate.Struct(groupRequest{ID: v.ID, Title: v.Title, Members: v.Members})
	default:
		panic(unknownVariant(v))
	}
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidThread, err)
	}
	return nil
}

// Insert persists a thread created with NewContactThread or NewGroupThread.
// A contact or group may own a single thread.
func Insert(tx storage.ReadWriteTx, t *Thread) error {
	if err := validateVariant(t.variant); err != nil {
		return err
	}
	for _, key := range [][]byte{threadKey(t.id), indexKey(t.variant)} {
		_, err := tx.Get(key)
		if err == nil {
			return fmt.Errorf("%w: %s", apperrors.ErrThreadAlreadyExists, key)
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
	}
	return save(tx, t)
}

// Load reads the thread's record as seen by tx.
func Load(tx storage.ReadTx, id string) (*Thread, error) {
	raw, err := tx.Get(threadKey(id))
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrThreadNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return decodeThread(raw)
}

func FindByContact(tx storage.ReadTx, contactID string) (*Thread, error) {
	return findByIndex(tx, contactIndexKey(contactID))
}

func FindByGroup(tx storage.ReadTx, groupID string) (*Thread, error) {
	return findByIndex(tx, groupIndexKey(groupID))
}

func findByIndex(tx storage.ReadTx, key []byte) (*Thread, error) {
	id, err := tx.Get(key)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrThreadNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return Load(tx, string(id))
}

// List returns every thread, in no particular order.
func List(tx storage.ReadTx) ([]*Thread, error) {
	var threads []*Thread
	err := tx.Scan([]byte(threadPrefix), storage.ScanOptions{}, func(key, value []byte) error {
		t, err := decodeThread(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		threads = append(threads, t)
		return nil
	})
	return threads, err
}

func indexKey(v Variant) []byte {
	switch v := v.(type) {
	case Contact:
		return contactIndexKey(v.Identifier)
	case Group:
		return groupIndexKey(v.ID)
	default:
		panic(unknownVariant(v))
	}
}

func save(tx storage.ReadWriteTx, t *Thread) error {
	if err := tx.Set(threadKey(t.id), encodeThread(t)); err != nil {
		return err
	}
	return tx.Set(indexKey(t.variant), []byte(t.id))
}

// mutate applies change to the record persisted in tx rather than to the
// receiver, so concurrent writers of different fields do not overwrite each
// other with stale copies. The receiver reflects the result right away, for
// the rest of the transaction, and is restored if tx does not commit.
// Only inserted threads can be mutated.
func (t *Thread) mutate(tx storage.ReadWriteTx, change func(current *Thread)) error {
	current, err := Load(tx, t.id)
	if err != nil {
		return err
	}
	change(current)
	if err = save(tx, current); err != nil {
		return err
	}
	previous := t.clone()
	*t = *current.clone()
	tx.OnRollback(func() { *t = *previous })
	return nil
}

const (
	fieldID protowire.Number = iota + 1
	fieldKind
	fieldContactIdentifier
	fieldGroupID
	fieldGroupTitle
	fieldGroupMember
	fieldCreatedAt
	fieldArchivedAt
	fieldLastMessageID
	fieldLastMessageAt
	fieldLastMessagePreview
	fieldDraft
)

const (
	kindContact uint64 = iota + 1
	kindGroup
)

func encodeThread(t *Thread) []byte {
	var b []byte
	b = storage.AppendString(b, fieldID, t.id)
	switch v := t.variant.(type) {
	case Contact:
		b = storage.AppendVarint(b, fieldKind, kindContact)
		b = storage.AppendString(b, fieldContactIdentifier, v.Identifier)
	case Group:
		b = storage.AppendVarint(b, fieldKind, kindGroup)
		b = storage.AppendString(b, fieldGroupID, v.ID)
		b = storage.AppendString(b, fieldGroupTitle, v.Title)
		for _, member := range v.Members {
			b = protowire.AppendTag(b, fieldGroupMember, protowire.BytesType)
			b = protowire.AppendString(b, member)
		}
	default:
		panic(unknownVariant(t.variant))
	}
	b = storage.AppendTime(b, fieldCreatedAt, t.createdAt)
	if t.archivedAt != nil {
		b = storage.AppendTime(b, fieldArchivedAt, *t.archivedAt)
	}
	if t.lastMessage != nil {
		b = storage.AppendString(b, fieldLastMessageID, t.lastMessage.InteractionID)
		b = storage.AppendTime(b, fieldLastMessageAt, t.lastMessage.At)
		b = storage.AppendString(b, fieldLastMessagePreview, t.lastMessage.Preview)
	}
	b = storage.AppendString(b, fieldDraft, t.draft)
	return b
}

func decodeThread(raw []byte) (*Thread, error) {
	var (
		t           Thread
		kind        uint64
		contact     Contact
		group       Group
		lastMessage LastMessage
		hasLast     bool
	)
	d := storage.NewDecoder(raw)
	for d.Next() {
		switch d.Field() {
		case fieldID:
			t.id = d.String()
		case fieldKind:
			kind = d.Varint()
		case fieldContactIdentifier:
			contact.Identifier = d.String()
		case fieldGroupID:
			group.ID = d.String()
		case fieldGroupTitle:
			group.Title = d.String()
		case fieldGroupMember:
			group.Members = append(group.Members, d.String())
		case fieldCreatedAt:
			t.createdAt = d.Time()
		case fieldArchivedAt:
			t.archivedAt = lo.ToPtr(d.Time())
		case fieldLastMessageID:
			lastMessage.InteractionID = d.String()
		case fieldLastMessageAt:
			lastMessage.At, hasLast = d.Time(), true
		case fieldLastMessagePreview:
			lastMessage.Preview = d.String()
		case fieldDraft:
			t.draft = d.String()
		default:
			d.Skip()
		}
	}
	if err := d.Err(); err != nil {
		return nil, err
	}

	switch kind {
	case kindContact:
		t.variant = contact
	case kindGroup:
		t.variant = group
	default:
		return nil, fmt.Errorf("%w: thread %s has unknown kind %d", apperrors.ErrCorruptRecord, t.id, kind)
	}
	if hasLast {
		t.lastMessage = &lastMessage
	}
	if strings.TrimSpace(t.id) == "" {
		return nil, fmt.Errorf("%w: thread without id", apperrors.ErrCorruptRecord)
	}
	return &t, nil
}
