package main

import (
	"chat-threads/domain"
	"chat-threads/internal"
	"chat-threads/repositories"
	"chat-threads/services"
	"chat-threads/storage"
	"chat-threads/thread"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
)

const usage = `usage: threadctl <command> [arguments]

commands:
  list [-archived]                          list threads, most recent first
  show <thread>                             print a thread and its interactions
  create-contact [-name NAME] <contact>     get or create a contact thread
  create-group -id ID [-title T] [-members a,b]
  post [-incoming] <thread> <text>          append a text interaction
  read <thread>                             mark every interaction read
  archive <thread> | unarchive <thread>
  draft <thread> [text]                     print or replace the draft
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run keeps every defer (closing BadgerDB first of all) ahead of os.Exit.
func run(args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	config, err := internal.LoadConfig()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	store, err := storage.Open(config.BadgerFilepath, log, config.MaxConflictRetries)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	profiles := repositories.NewProfileRepository(store, log)
	cli := commands{
		service:  services.NewThreadService(store, profiles, log, config.InboxLimit),
		profiles: profiles,
	}
	return cli.dispatch(args[0], args[1:])
}

type commands struct {
	service  services.IThreadService
	profiles *repositories.ProfileRepository
}

func (c commands) dispatch(name string, args []string) error {
	switch name {
	case "list":
		return c.list(args)
	case "show":
		return c.withThread(args, c.show)
	case "create-contact":
		return c.createContact(args)
	case "create-group":
		return c.createGroup(args)
	case "post":
		return c.post(args)
	case "read":
		return c.withThread(args, c.service.MarkAllAsRead)
	case "archive":
		return c.withThread(args, c.service.Archive)
	case "unarchive":
		return c.withThread(args, c.service.Unarchive)
	case "draft":
		return c.draft(args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
}

func (c commands) withThread(args []string, fn func(t *thread.Thread) error) error {
	if len(args) != 1 {
		return errUsage
	}
	t, err := c.service.GetThread(args[0])
	if err != nil {
		return err
	}
	return fn(t)
}

func (c commands) list(args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	archived := fs.Bool("archived", false, "list archived threads instead of the inbox")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	list := c.service.Inbox
	if *archived {
		list = c.service.Archived
	}
	threads, err := list()
	if err != nil {
		return err
	}
	for _, t := range threads {
		if err = c.printLine(t); err != nil {
			return err
		}
	}
	return nil
}

func (c commands) printLine(t *thread.Thread) error {
	summary, err := c.service.Summary(t)
	if err != nil {
		return err
	}
	marker := " "
	if summary.HasUnreadMessages {
		marker = color.FgGreen.Render("●")
	}
	name := summary.Name
	if t.IsArchived() {
		name = color.FgGray.Render(name + " (archived)")
	}
	fmt.Printf("%s %s  %s  %s  [%d]\n", marker, t.ID(), name,
		t.LastMessageDate().Format(time.DateTime), summary.NumberOfInteractions)
	if summary.LastMessageLabel != "" {
		fmt.Printf("    %s\n", summary.LastMessageLabel)
	}
	return nil
}

func (c commands) show(t *thread.Thread) error {
	if err := c.printLine(t); err != nil {
		return err
	}
	interactions, err := c.service.Interactions(t)
	if err != nil {
		return err
	}
	for _, i := range interactions {
		fmt.Println(interactionLine(i))
	}
	draft, err := c.service.Draft(t)
	if err != nil {
		return err
	}
	if draft != "" {
		fmt.Printf("  draft: %s\n", color.FgMagenta.Render(draft))
	}
	return nil
}

// interactionLine names the offending key by fingerprint so an invalid-key
// message can be matched against a safety number without printing the key.
func interactionLine(i domain.Interaction) string {
	arrow := color.FgCyan.Render("→")
	if i.IsIncoming() {
		arrow = color.FgYellow.Render("←")
	}
	line := fmt.Sprintf("  %s %s %s", i.Timestamp.Format(time.DateTime), arrow, i.PreviewText())
	if fingerprint := domain.KeyFingerprint(i.IdentityKey); i.Kind == domain.KindInvalidIdentityKey && fingerprint != "" {
		line += " " + color.FgRed.Render("[key "+fingerprint+"]")
	}
	return line
}

func (c commands) createContact(args []string) error {
	fs := flag.NewFlagSet("create-contact", flag.ContinueOnError)
	name := fs.String("name", "", "display name stored in the directory")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}
	contactID := fs.Arg(0)
	if *name != "" {
		if err := c.profiles.SaveContact(repositories.ContactProfile{ContactID: contactID, DisplayName: *name}); err != nil {
			return err
		}
	}
	t, err := c.service.GetOrCreateContactThread(contactID)
	if err != nil {
		return err
	}
	fmt.Println(t.ID())
	return nil
}

func (c commands) createGroup(args []string) error {
	fs := flag.NewFlagSet("create-group", flag.ContinueOnError)
	id := fs.String("id", "", "group id")
	title := fs.String("title", "", "group title")
	members := fs.String("members", "", "comma separated member identifiers")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	group := thread.Group{ID: *id, Title: *title}
	if *members != "" {
		group.Members = strings.Split(*members, ",")
	}
	t, err := c.service.CreateGroupThread(group)
	if err != nil {
		return err
	}
	fmt.Println(t.ID())
	return nil
}

func (c commands) post(args []string) error {
	fs := flag.NewFlagSet("post", flag.ContinueOnError)
	incoming := fs.Bool("incoming", false, "record the message as received")
	if err := fs.Parse(args); err != nil || fs.NArg() < 2 {
		return errUsage
	}
	interaction := domain.Interaction{
		ID:        uuid.NewString(),
		ThreadID:  fs.Arg(0),
		Timestamp: time.Now().UTC(),
		Direction: domain.Outgoing,
		Read:      true,
		Kind:      domain.KindText,
		Body:      strings.Join(fs.Args()[1:], " "),
	}
	if *incoming {
		interaction.Direction, interaction.Read = domain.Incoming, false
	}
	t, err := c.service.PostInteraction(interaction)
	if err != nil {
		return err
	}
	return c.printLine(t)
}

func (c commands) draft(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	t, err := c.service.GetThread(args[0])
	if err != nil {
		return err
	}
	if len(args) > 1 {
		return c.service.SaveDraft(t, strings.Join(args[1:], " "))
	}
	draft, err := c.service.Draft(t)
	if err != nil {
		return err
	}
	fmt.Println(draft)
	return nil
}
