package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/olekukonko/tablewriter"

	"dm-lab/repositories"
)

// Read-only dump of the keyspace, one row per key, decoded by prefix.
// Opens the store with BypassLockGuard so it works while the server runs.
func main() {
	dbPath := flag.String("db", "/tmp/dm-lab/badger", "Path to badger DB")
	prefix := flag.String("prefix", "", "Prefix to scan (user:, conv:, part:, userconv:, msg:, msgref:)")
	flag.Parse()

	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Detail"})
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

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// Badger internal keys (sequence bandwidth etc).
			if strings.HasPrefix(key, "!") {
				continue
			}

			err := item.Value(func(v []byte) error {
				rowType, detail := describe(key, v)
				table.Append([]string{key, rowType, detail})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func describe(key string, value []byte) (string, string) {
	switch {
	case strings.HasPrefix(key, "user:id:"):
		var user repositories.User
		if err := cbor.Unmarshal(value, &user); err != nil {
			return "USER", decodeError(err)
		}
		return "USER", fmt.Sprintf("%s (%s) created=%s",
			user.Username, user.DisplayName, user.CreatedAt.Format("2006-01-02 15:04:05"))

	case strings.HasPrefix(key, "user:name:"):
		return "USERNAME_IDX", "-> " + string(value)

	case strings.HasPrefix(key, "conv:"):
		var row repositories.ConversationRow
		if err := cbor.Unmarshal(value, &row); err != nil {
			return "CONVERSATION", decodeError(err)
		}
		return "CONVERSATION", fmt.Sprintf("type=%d creator=%s updated=%s",
			row.Type, shortID(row.CreatorID), row.UpdatedAt.Format("15:04:05"))

	case strings.HasPrefix(key, "part:"):
		var part repositories.ParticipantRow
		if err := cbor.Unmarshal(value, &part); err != nil {
			return "PARTICIPANT", decodeError(err)
		}
		return "PARTICIPANT", "joined=" + part.JoinedAt.Format("2006-01-02 15:04:05")

	case strings.HasPrefix(key, "userconv:"):
		return "USERCONV_IDX", ""

	case strings.HasPrefix(key, "msgref:"):
		return "MSGREF_IDX", "-> " + string(value)

	case strings.HasPrefix(key, "msg:"):
		var msg repositories.DiskMessage
		if err := cbor.Unmarshal(value, &msg); err != nil {
			return "MESSAGE", decodeError(err)
		}
		return "MESSAGE", fmt.Sprintf("%s @%s: %s",
			shortID(msg.AuthorID), msg.CreatedAt.Format("15:04:05"), truncate(msg.Content, 60))
	}
	return "UNKNOWN", fmt.Sprintf("%d bytes", len(value))
}

func decodeError(err error) string {
	return "decode error: " + err.Error()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
