// Command seed loads a genre-keyed JSON file of artists into the MongoDB
// artists collection. The input maps each genre to an array of artist
// records; the genre key is written onto every record it contains.
//
// Usage:
//
//	go run ./cmd/seed -file resources/artists.json -drop
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/cfyby/artist-api/internal/config"
	"github.com/cfyby/artist-api/internal/domain"
	"github.com/cfyby/artist-api/internal/observability"
	"github.com/cfyby/artist-api/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run() error {
	file := flag.String("file", "", "genre-keyed JSON file of artists")
	drop := flag.Bool("drop", false, "delete all existing artists before inserting")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -file")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(cfg.LogLevel, "text")

	artists, err := readSeedFile(*file)
	if err != nil {
		return err
	}
	if len(artists) == 0 {
		return fmt.Errorf("no artists found in %s", *file)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	s, err := store.NewMongoStore(ctx, cfg.MongoURL, cfg.MongoDatabase, logger)
	if err != nil {
		return err
	}
	defer s.Close(context.Background()) //nolint:errcheck // best-effort disconnect

	if *drop {
		deleted, err := s.DeleteAllArtists(ctx)
		if err != nil {
			return err
		}
		logger.Info("cleared existing artists", "deleted", deleted)
	}

	inserted, err := s.InsertArtists(ctx, artists)
	if err != nil {
		return err
	}
	logger.Info("seeded artists", "inserted", inserted, "file", *file)
	return nil
}

// readSeedFile flattens {"genre": [artist, ...], ...} into a single slice,
// stamping the genre onto each record. Genres are processed in sorted order
// so runs are reproducible.
func readSeedFile(path string) ([]domain.Artist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var byGenre map[string][]domain.Artist
	if err := json.Unmarshal(data, &byGenre); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	genres := make([]string, 0, len(byGenre))
	for genre := range byGenre {
		genres = append(genres, genre)
	}
	sort.Strings(genres)

	var artists []domain.Artist
	for _, genre := range genres {
		for _, artist := range byGenre[genre] {
			artist.Genre = genre
			artists = append(artists, artist)
		}
	}
	return artists, nil
}
