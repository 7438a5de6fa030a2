// Package thread models a persisted conversation, one-to-one or multi-party,
// together with the summary it caches about its message log: last message,
// archival state and draft.
//
// Every operation that reads the log or writes the record takes a transaction
// handle from the storage package. The package never opens a transaction on
// its own; see services.ThreadService for one-call convenience wrappers.
//
// A Thread value reflects what it was loaded with plus its own writes, which
// are visible as soon as they are made inside a transaction and undone if that
// transaction does not commit. It is not safe for concurrent use; share the
// persisted record, not the value.
package thread

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const defaultGroupName = "New Group"

// Variant is the closed set of thread kinds: Contact or Group.
type Variant interface {
	isVariant()
}

// Contact is a one-to-one conversation with a single peer.
type Contact struct {
	Identifier string
}

// Group is a multi-party conversation.
type Group struct {
	ID      string
	Title   string
	Members []string
}

func (Contact) isVariant() {}
func (Group) isVariant()   {}

// LastMessage is the cached summary of the most recent interaction accepted
// into the thread through UpdateWithLastMessage.
type LastMessage struct {
	InteractionID string
	At            time.Time
	Preview       string
}

type Thread struct {
	id          string
	createdAt   time.Time
	variant     Variant
	archivedAt  *time.Time
	lastMessage *LastMessage
	draft       string
}

func NewContactThread(contactID string) *Thread {
	return newThread(Contact{Identifier: contactID})
}

func NewGroupThread(group Group) *Thread {
	group.Members = append([]string(nil), group.Members...)
	return newThread(group)
}

func newThread(variant Variant) *Thread {
	return &Thread{
		id:        uuid.NewString(),
		createdAt: time.Now().UTC(),
		variant:   variant,
	}
}

func (t *Thread) ID() string {
	return t.id
}

func (t *Thread) CreatedAt() time.Time {
	return t.createdAt
}

// Variant returns the thread's kind with its kind-specific fields.
func (t *Thread) Variant() Variant {
	return t.variant
}

func (t *Thread) IsGroupThread() bool {
	switch t.variant.(type) {
	case Contact:
		return false
	case Group:
		return true
	default:
		panic(unknownVariant(t.variant))
	}
}

// ContactIdentifier returns the peer identifier of a contact thread. A group
// thread has none.
func (t *Thread) ContactIdentifier() (string, bool) {
	switch v := t.variant.(type) {
	case Contact:
		return v.Identifier, true
	case Group:
		return "", false
	default:
		panic(unknownVariant(t.variant))
	}
}

// GroupMembers returns nil for a contact thread.
func (t *Thread) GroupMembers() []string {
	switch v := t.variant.(type) {
	case Contact:
		return nil
	case Group:
		return append([]string(nil), v.Members...)
	default:
		panic(unknownVariant(t.variant))
	}
}

// Name is the display name: the peer's profile name for a contact thread,
// falling back to the identifier, and the stored title for a group thread.
func (t *Thread) Name(dir Directory) string {
	switch v := t.variant.(type) {
	case Contact:
		if name, ok := dir.ContactName(v.Identifier); ok {
			return name
		}
		return v.Identifier
	case Group:
		return lo.CoalesceOrEmpty(v.Title, defaultGroupName)
	default:
		panic(unknownVariant(t.variant))
	}
}

// Image returns the cached avatar of the peer or group, if the directory has one.
func (t *Thread) Image(dir Directory) ([]byte, bool) {
	switch v := t.variant.(type) {
	case Contact:
		return dir.ContactAvatar(v.Identifier)
	case Group:
		return dir.GroupAvatar(v.ID)
	default:
		panic(unknownVariant(t.variant))
	}
}

func unknownVariant(v Variant) string {
	return fmt.Sprintf("thread: unknown variant %T", v)
}

func (t *Thread) clone() *Thread {
	c := *t
	if g, ok := c.variant.(Group); ok {
		g.Members = append([]string(nil), g.Members...)
		c.variant = g
	}
	if t.archivedAt != nil {
		c.archivedAt = lo.ToPtr(*t.archivedAt)
	}
	if t.lastMessage != nil {
		c.lastMessage = lo.ToPtr(*t.lastMessage)
	}
	return &c
}
