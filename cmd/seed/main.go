// Package main provides a tool to seed the database with demo signage data.
//
// This creates demo users with screens, content items, and playlists, and
// optionally backfills proof-of-play impressions to exercise reports.
//
// Usage:
//
//	DATA_PATH=~/websign go run ./cmd/seed
//	DATA_PATH=~/websign go run ./cmd/seed --impressions  # Also backfill play stats
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/websignapp/websign-server/internal/auth"
	"github.com/websignapp/websign-server/internal/domain"
	"github.com/websignapp/websign-server/internal/id"
	"github.com/websignapp/websign-server/internal/stats"
	"github.com/websignapp/websign-server/internal/store"
)

var seedImpressions = flag.Bool("impressions", false, "Backfill two weeks of proof-of-play impressions")

// demoUsers are the accounts this tool creates. All share the password
// "demopass123".
var demoUsers = []struct {
	email string
	name  string
}{
	{"lobby@example.com", "Alex Rivera"},
	{"cafeteria@example.com", "Jordan Chen"},
	{"reception@example.com", "Sam Taylor"},
}

var demoMessages = []string{
	"Welcome to headquarters",
	"All-hands meeting Friday at 3pm",
	"Visitor parking is on level B2",
	"Quarterly results are in - great work everyone",
	"The cafeteria closes at 2:30 today",
}

var demoScreenNames = []struct {
	name     string
	location string
}{
	{"Lobby North", "Main lobby, north wall"},
	{"Lobby South", "Main lobby, south wall"},
	{"Cafeteria", "Cafeteria entrance"},
	{"Elevator Bank", "2nd floor elevators"},
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/websign")
	}

	dbPath := filepath.Join(dataPath, "db")
	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil, store.NewNoopEmitter())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	passwordHash, err := auth.HashPassword("demopass123")
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	now := time.Now()

	for _, du := range demoUsers {
		if existing, _ := s.Users.GetByIndex(ctx, "email", du.email); existing != nil {
			fmt.Printf("User %s already exists, skipping\n", du.email)
			continue
		}

		user := &domain.User{
			Timestamps: domain.Timestamps{
				ID:        id.MustGenerate("usr"),
				CreatedAt: now,
				UpdatedAt: now,
			},
			Email:        du.email,
			PasswordHash: passwordHash,
			Role:         domain.RoleMember,
			DisplayName:  du.name,
		}

		if err := s.Users.Create(ctx, user.ID, user); err != nil {
			log.Printf("Failed to create user %s: %v", du.email, err)
			continue
		}

		fmt.Printf("\nCreated user: %s (%s)\n", du.name, du.email)
		seedSignage(ctx, s, rng, user, dataPath)
	}

	fmt.Println("\nSeeding complete!")
}

// seedSignage creates screens, content, and a playlist for a user, assigns
// the playlist to every screen, and optionally backfills impressions.
func seedSignage(ctx context.Context, s *store.Store, rng *rand.Rand, user *domain.User, dataPath string) {
	now := time.Now()

	// Content: a handful of text messages plus one placeholder image.
	var contentItems []*domain.ContentItem
	numMessages := 2 + rng.Intn(3)
	for i := 0; i < numMessages; i++ {
		msg := demoMessages[(i+rng.Intn(len(demoMessages)))%len(demoMessages)]
		item := &domain.ContentItem{
			Timestamps: domain.Timestamps{
				ID:        id.MustGenerate("cnt"),
				CreatedAt: now,
				UpdatedAt: now,
			},
			OwnerID:  user.ID,
			Name:     msg,
			Type:     domain.ContentTypeText,
			Content:  msg,
			Duration: 5 + rng.Intn(10),
		}
		if err := s.CreateContent(ctx, item); err != nil {
			log.Printf("  Failed to create content: %v", err)
			continue
		}
		contentItems = append(contentItems, item)
	}

	poster := &domain.ContentItem{
		Timestamps: domain.Timestamps{
			ID:        id.MustGenerate("cnt"),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OwnerID:  user.ID,
		Name:     "welcome-poster.jpg",
		Type:     domain.ContentTypeImage,
		Content:  "/uploads/welcome-poster.jpg",
		Duration: 15,
		Media: &domain.MediaInfo{
			FileName: "welcome-poster.jpg",
			MimeType: "image/jpeg",
		},
	}
	if err := s.CreateContent(ctx, poster); err != nil {
		log.Printf("  Failed to create poster content: %v", err)
	} else {
		contentItems = append(contentItems, poster)
	}

	fmt.Printf("  Created %d content items\n", len(contentItems))

	// One playlist holding everything, in creation order.
	playlist := &domain.Playlist{
		Timestamps: domain.Timestamps{
			ID:        id.MustGenerate("pls"),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OwnerID: user.ID,
		Name:    "Default rotation",
	}
	for _, item := range contentItems {
		playlist.AddItems(item.ID)
	}
	if err := s.CreatePlaylist(ctx, playlist); err != nil {
		log.Printf("  Failed to create playlist: %v", err)
		return
	}
	fmt.Printf("  Created playlist %q with %d items\n", playlist.Name, len(playlist.Items))

	// Screens, each assigned the playlist.
	numScreens := 1 + rng.Intn(3)
	var screens []*domain.Screen
	for i := 0; i < numScreens; i++ {
		spec := demoScreenNames[i%len(demoScreenNames)]
		screen := &domain.Screen{
			Timestamps: domain.Timestamps{
				ID:        id.MustGenerate("scr"),
				CreatedAt: now,
				UpdatedAt: now,
			},
			OwnerID:    user.ID,
			Name:       spec.name,
			Location:   spec.location,
			PlaylistID: playlist.ID,
		}
		if err := s.CreateScreen(ctx, screen); err != nil {
			log.Printf("  Failed to create screen %s: %v", spec.name, err)
			continue
		}
		screens = append(screens, screen)
	}
	fmt.Printf("  Created %d screens\n", len(screens))

	if *seedImpressions && len(screens) > 0 && len(contentItems) > 0 {
		backfillImpressions(ctx, rng, user, playlist, screens, contentItems, dataPath)
	}
}

// backfillImpressions writes two weeks of synthetic proof-of-play records
// into the stats database so reports have something to aggregate.
func backfillImpressions(ctx context.Context, rng *rand.Rand, user *domain.User, playlist *domain.Playlist, screens []*domain.Screen, items []*domain.ContentItem, dataPath string) {
	statsStore, err := stats.Open(filepath.Join(dataPath, "stats.db"), nil)
	if err != nil {
		log.Printf("  Failed to open stats store: %v", err)
		return
	}
	defer statsStore.Close()

	now := time.Now()
	created := 0

	for day := 13; day >= 0; day-- {
		// Uptime varies: most days the screens run, some days they were off.
		if day > 1 && rng.Float32() > 0.85 {
			continue
		}

		for _, screen := range screens {
			// Rough plays per day: every item shown a few dozen times.
			plays := 20 + rng.Intn(40)
			for p := 0; p < plays; p++ {
				item := items[rng.Intn(len(items))]

				hour := 8 + rng.Intn(12)
				minute := rng.Intn(60)
				displayedAt := time.Date(
					now.Year(), now.Month(), now.Day()-day,
					hour, minute, rng.Intn(60), 0, time.Local,
				)

				imp := &domain.Impression{
					ID:          id.MustGenerate("imp"),
					OwnerID:     user.ID,
					ScreenID:    screen.ID,
					PlaylistID:  playlist.ID,
					ContentID:   item.ID,
					ContentType: string(item.Type),
					DisplayedAt: displayedAt,
					DurationMs:  int64(item.Duration) * 1000,
					CreatedAt:   displayedAt,
				}

				if err := statsStore.RecordImpression(ctx, imp); err != nil {
					log.Printf("  Failed to record impression: %v", err)
					continue
				}
				created++
			}
		}
	}

	fmt.Printf("  Backfilled %d impressions across %d screens\n", created, len(screens))
}
