package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/websignapp/websign-server/internal/domain"
)

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/websign")
	}
	dbPath := filepath.Join(dataPath, "db")

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	userCount := countPrefix(db, "user:")
	screenCount := 0
	screensAssigned := 0
	playlistCount := 0
	emptyPlaylists := 0
	totalItems := 0
	contentByType := map[domain.ContentType]int{}

	err = db.View(func(txn *badger.Txn) error {
		forEachValue(txn, "screen:", func(val []byte) {
			var screen domain.Screen
			if err := json.Unmarshal(val, &screen); err != nil {
				return
			}
			screenCount++
			if screen.HasPlaylist() {
				screensAssigned++
			}
			if screenCount <= 5 {
				fmt.Printf("Screen: %s\n", screen.Name)
				fmt.Printf("  ID: %s\n", screen.ID)
				fmt.Printf("  Location: %s\n", screen.Location)
				fmt.Printf("  Playlist: %s\n", orNone(screen.PlaylistID))
				fmt.Println()
			}
		})

		forEachValue(txn, "playlist:", func(val []byte) {
			var p domain.Playlist
			if err := json.Unmarshal(val, &p); err != nil {
				return
			}
			playlistCount++
			totalItems += len(p.Items)
			if len(p.Items) == 0 {
				emptyPlaylists++
			}
			if playlistCount <= 5 {
				fmt.Printf("Playlist: %s (%d items)\n", p.Name, len(p.Items))
				for i, item := range p.Items {
					if i < 5 {
						fmt.Printf("    [%d] %s\n", item.Position, item.ContentID)
					}
				}
				if len(p.Items) > 5 {
					fmt.Printf("    ... and %d more items\n", len(p.Items)-5)
				}
				fmt.Println()
			}
		})

		forEachValue(txn, "content:", func(val []byte) {
			var item domain.ContentItem
			if err := json.Unmarshal(val, &item); err != nil {
				return
			}
			contentByType[item.Type]++
		})

		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	contentCount := 0
	for _, n := range contentByType {
		contentCount += n
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Users: %d\n", userCount)
	fmt.Printf("Screens: %d (%d with a playlist assigned)\n", screenCount, screensAssigned)
	fmt.Printf("Playlists: %d (%d empty)\n", playlistCount, emptyPlaylists)
	fmt.Printf("Content items: %d", contentCount)
	if contentCount > 0 {
		fmt.Printf(" (text: %d, image: %d, video: %d)",
			contentByType[domain.ContentTypeText],
			contentByType[domain.ContentTypeImage],
			contentByType[domain.ContentTypeVideo])
	}
	fmt.Println()
	if playlistCount > 0 {
		fmt.Printf("Average items per playlist: %.1f\n", float64(totalItems)/float64(playlistCount))
	}
}

// forEachValue iterates the primary records under a key prefix, skipping
// index keys, and calls fn with each raw value.
func forEachValue(txn *badger.Txn, prefix string, fn func(val []byte)) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
		item := it.Item()
		key := string(item.Key())
		if strings.HasPrefix(key, prefix+"idx:") {
			continue
		}
		if err := item.Value(func(val []byte) error {
			fn(val)
			return nil
		}); err != nil {
			log.Printf("Error reading %s: %v", key, err)
		}
	}
}

// countPrefix counts primary records under a key prefix.
func countPrefix(db *badger.DB, prefix string) int {
	count := 0
	_ = db.View(func(txn *badger.Txn) error {
		forEachValue(txn, prefix, func([]byte) { count++ })
		return nil
	})
	return count
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
