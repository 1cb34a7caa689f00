package store

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/cfyby/artist-api/internal/domain"
)

// MemoryStore is an in-process domain.ArtistStore with the same matching
// semantics as MongoStore. It backs handler tests and local development
// without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	artists []domain.Artist
	nextID  int
}

func NewMemoryStore(seed ...domain.Artist) *MemoryStore {
	s := &MemoryStore{}
	for _, a := range seed {
		if a.ID == "" {
			s.nextID++
			a.ID = "mem-" + strconv.Itoa(s.nextID)
		}
		s.artists = append(s.artists, a)
	}
	return s
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func matchesQuery(a domain.Artist, q domain.ArtistQuery) bool {
	if q.Genre != "" && !strings.EqualFold(a.Genre, q.Genre) {
		return false
	}
	for _, v := range []string{q.Country, q.City, q.Location} {
		if v != "" && !containsFold(a.Location, v) {
			return false
		}
	}
	return true
}

func (s *MemoryStore) FindArtists(_ context.Context, q domain.ArtistQuery) ([]domain.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Artist
	for _, a := range s.artists {
		if !matchesQuery(a, q) {
			continue
		}
		out = append(out, a)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) FindArtistByName(_ context.Context, name string) (*domain.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.artists {
		if strings.EqualFold(a.Name, name) {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FindArtistByAlbumTitle(_ context.Context, title string) (*domain.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.artists {
		for _, album := range a.Albums {
			if strings.EqualFold(album.Title, title) {
				found := a
				return &found, nil
			}
		}
	}
	return nil, nil
}

func (s *MemoryStore) InsertArtist(_ context.Context, artist domain.Artist) (domain.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if artist.ID == "" {
		s.nextID++
		artist.ID = "mem-" + strconv.Itoa(s.nextID)
	}
	s.artists = append(s.artists, artist)
	return artist, nil
}

func (s *MemoryStore) AppendAlbum(_ context.Context, artistName string, album domain.Album) (domain.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.artists {
		if strings.EqualFold(s.artists[i].Name, artistName) {
			s.artists[i].Albums = append(s.artists[i].Albums, album)
			return domain.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	return domain.UpdateResult{}, nil
}

func (s *MemoryStore) FindArtistsMissingCoordinates(_ context.Context, limit int) ([]domain.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Artist
	for _, a := range s.artists {
		if a.Location == "" || a.Coordinates != nil {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) SetCoordinates(_ context.Context, id string, coord domain.Coordinate) (domain.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.artists {
		if s.artists[i].ID == id {
			c := coord
			s.artists[i].Coordinates = &c
			return domain.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	return domain.UpdateResult{}, nil
}

// CheckReadiness always succeeds for the in-memory store.
func (s *MemoryStore) CheckReadiness(context.Context) error { return nil }
