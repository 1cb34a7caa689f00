//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/cfyby/artist-api/internal/domain"
	"github.com/cfyby/artist-api/internal/store"
)

func startMongo(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tcmongo.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start mongodb container")

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err, "mongodb connection string")
	return uri
}

func newStore(ctx context.Context, t *testing.T) *store.MongoStore {
	t.Helper()

	uri := startMongo(ctx, t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := store.NewMongoStore(ctx, uri, "cfyby-test", logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close(context.Background())
	})
	return s
}

func seedArtists(ctx context.Context, t *testing.T, s *store.MongoStore) {
	t.Helper()

	n, err := s.InsertArtists(ctx, []domain.Artist{
		{
			Name:     "Nirvana",
			Genre:    "grunge",
			Location: "Seattle, Washington, United States",
			Summary:  "Grunge pioneers.",
			Albums: []domain.Album{
				{Title: "Nevermind", Year: "1991"},
			},
			Coordinates: &domain.Coordinate{Latitude: 47.6062, Longitude: -122.3321},
		},
		{
			Name:     "Sleater-Kinney",
			Genre:    "punk",
			Location: "Olympia, Washington, United States",
		},
		{
			Name:     "Radiohead",
			Genre:    "alternative rock",
			Location: "Abingdon, England, United Kingdom",
		},
	})
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestMongoStoreRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	s := newStore(ctx, t)
	seedArtists(ctx, t, s)

	t.Run("readiness", func(t *testing.T) {
		require.NoError(t, s.CheckReadiness(ctx))
	})

	t.Run("genre is exact and case-insensitive", func(t *testing.T) {
		artists, err := s.FindArtists(ctx, domain.ArtistQuery{Genre: "GRUNGE"})
		require.NoError(t, err)
		require.Len(t, artists, 1)
		assert.Equal(t, "Nirvana", artists[0].Name)

		artists, err = s.FindArtists(ctx, domain.ArtistQuery{Genre: "grun"})
		require.NoError(t, err)
		assert.Empty(t, artists)
	})

	t.Run("location filters are substrings with AND semantics", func(t *testing.T) {
		artists, err := s.FindArtists(ctx, domain.ArtistQuery{Country: "united states"})
		require.NoError(t, err)
		assert.Len(t, artists, 2)

		artists, err = s.FindArtists(ctx, domain.ArtistQuery{Country: "United States", City: "olympia"})
		require.NoError(t, err)
		require.Len(t, artists, 1)
		assert.Equal(t, "Sleater-Kinney", artists[0].Name)
	})

	t.Run("find by name returns nil nil when absent", func(t *testing.T) {
		artist, err := s.FindArtistByName(ctx, "nirvana")
		require.NoError(t, err)
		require.NotNil(t, artist)
		assert.Equal(t, "Nirvana", artist.Name)
		assert.NotEmpty(t, artist.ID)

		artist, err = s.FindArtistByName(ctx, "Unknown Band")
		require.NoError(t, err)
		assert.Nil(t, artist)
	})

	t.Run("regex metacharacters in names are literal", func(t *testing.T) {
		_, err := s.InsertArtist(ctx, domain.Artist{Name: "AC/DC (Tribute)", Genre: "rock"})
		require.NoError(t, err)

		artist, err := s.FindArtistByName(ctx, "ac/dc (tribute)")
		require.NoError(t, err)
		require.NotNil(t, artist)

		artist, err = s.FindArtistByName(ctx, "AC.DC .Tribute.")
		require.NoError(t, err)
		assert.Nil(t, artist, "dots must not act as regex wildcards")
	})

	t.Run("find by album title", func(t *testing.T) {
		artist, err := s.FindArtistByAlbumTitle(ctx, "NEVERMIND")
		require.NoError(t, err)
		require.NotNil(t, artist)
		assert.Equal(t, "Nirvana", artist.Name)
	})

	t.Run("append album", func(t *testing.T) {
		result, err := s.AppendAlbum(ctx, "sleater-kinney", domain.Album{Title: "Dig Me Out", Year: "1997"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.ModifiedCount)

		artist, err := s.FindArtistByName(ctx, "Sleater-Kinney")
		require.NoError(t, err)
		require.Len(t, artist.Albums, 1)
		assert.Equal(t, "Dig Me Out", artist.Albums[0].Title)
	})

	t.Run("coordinate backfill support", func(t *testing.T) {
		missing, err := s.FindArtistsMissingCoordinates(ctx, 0)
		require.NoError(t, err)
		names := make([]string, 0, len(missing))
		for _, a := range missing {
			names = append(names, a.Name)
		}
		assert.Contains(t, names, "Sleater-Kinney")
		assert.Contains(t, names, "Radiohead")
		assert.NotContains(t, names, "Nirvana")

		var target domain.Artist
		for _, a := range missing {
			if a.Name == "Radiohead" {
				target = a
			}
		}
		require.NotEmpty(t, target.ID)

		result, err := s.SetCoordinates(ctx, target.ID, domain.Coordinate{Latitude: 51.67, Longitude: -1.28})
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.ModifiedCount)

		artist, err := s.FindArtistByName(ctx, "Radiohead")
		require.NoError(t, err)
		require.NotNil(t, artist.Coordinates)
		assert.InDelta(t, 51.67, artist.Coordinates.Latitude, 1e-9)

		missing, err = s.FindArtistsMissingCoordinates(ctx, 0)
		require.NoError(t, err)
		for _, a := range missing {
			assert.NotEqual(t, "Radiohead", a.Name)
		}
	})

	t.Run("delete all", func(t *testing.T) {
		deleted, err := s.DeleteAllArtists(ctx)
		require.NoError(t, err)
		assert.Greater(t, deleted, int64(0))

		artists, err := s.FindArtists(ctx, domain.ArtistQuery{})
		require.NoError(t, err)
		assert.Empty(t, artists)
	})
}
