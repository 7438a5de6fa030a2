package main

import (
	"chat-threads/storage"
	"chat-threads/thread"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type inspectConfig struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" default:"./data/badger"`
	// INSPECT_ARCHIVED lists archived threads too
	Archived bool `envconfig:"INSPECT_ARCHIVED" default:"true"`
}

func main() {
	var cfg inspectConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal("Error while reading config: ", err)
	}
	dbPath := flag.String("db", cfg.BadgerFilepath, "Path to badger DB")
	archived := flag.Bool("archived", cfg.Archived, "Include archived threads")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()
	store := storage.NewStore(db, slog.Default(), 1)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Kind", "Peer / Group", "Archived", "Last message", "Unread", "Interactions", "Draft"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = store.View(func(tx storage.ReadTx) error {
		threads, err := thread.List(tx)
		if err != nil {
			return err
		}
		sort.Slice(threads, func(i, j int) bool {
			return threads[i].LastMessageDate().After(threads[j].LastMessageDate())
		})
		for _, t := range threads {
			if t.IsArchived() && !*archived {
				continue
			}
			row, err := inspectRow(tx, t)
			if err != nil {
				return err
			}
			table.Append(row)
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func inspectRow(tx storage.ReadTx, t *thread.Thread) ([]string, error) {
	kind, peer := "CONTACT", ""
	switch v := t.Variant().(type) {
	case thread.Contact:
		peer = v.Identifier
	case thread.Group:
		kind, peer = "GROUP", fmt.Sprintf("%s (%d members)", v.ID, len(v.Members))
	}

	archived := "-"
	if at, ok := t.ArchivalDate(); ok {
		archived = at.Format(time.DateTime)
	}
	unread, err := t.HasUnreadMessages(tx)
	if err != nil {
		return nil, err
	}
	count, err := t.NumberOfInteractions(tx)
	if err != nil {
		return nil, err
	}
	draft, err := t.CurrentDraft(tx)
	if err != nil {
		return nil, err
	}

	// Only the first 8 characters of the id, for readability
	displayID := t.ID()
	if len(displayID) > 8 {
		displayID = displayID[:8]
	}
	return []string{
		displayID,
		kind,
		peer,
		archived,
		t.LastMessageDate().Format(time.DateTime) + " " + t.LastMessageLabel(),
		strconv.FormatBool(unread),
		strconv.Itoa(count),
		draft,
	}, nil
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
