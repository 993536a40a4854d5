// Command inspect dumps the contents of a relay badger database for
// offline debugging: the message ledger, the room index or the account
// table, depending on the chosen prefix.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

type ledgerRow struct {
	ID         string `json:"id"`
	Room       int64  `json:"room"`
	Seq        int64  `json:"seq"`
	SenderID   int64  `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Body       string `json:"body"`
	At         int64  `json:"at"`
}

func main() {
	dbPath := flag.String("db", "/tmp/chat-relay", "Path to badger DB")
	room := flag.Int64("room", 0, "Restrict the scan to one numeric room id (0 scans every room)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	prefix := "msg:"
	if *room > 0 {
		prefix = fmt.Sprintf("msg:%d:", *room)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Seq", "Time", "Sender", "ID", "Body"})
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

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()

			// Secondary index rows live under idx:, never under msg:.
			// The guard matters only for the bare "msg:" scan.
			if strings.HasPrefix(string(item.Key()), "idx:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				var row ledgerRow
				if err := json.Unmarshal(v, &row); err != nil {
					// Report the corrupt row and keep scanning.
					fmt.Printf("Error unmarshaling key %s: %v\n", string(item.Key()), err)
					return nil
				}

				sender := row.SenderName
				if row.SenderID < 0 {
					sender = color.Cyan.Sprint(sender)
				}

				displayID := row.ID
				if len(displayID) > 8 {
					displayID = displayID[:8]
				}

				table.Append([]string{
					string(item.Key()),
					fmt.Sprintf("%d", row.Seq),
					time.Unix(0, row.At).UTC().Format("15:04:05"),
					sender,
					displayID,
					row.Body,
				})
				rows++
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
	color.Green.Printf("%d ledger entries\n", rows)
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	return badger.Open(opts)
}
