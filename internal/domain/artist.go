package domain

import "context"

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// Track is a single song inside an album's track listing.
type Track struct {
	Title    string `json:"title" bson:"title"`
	Duration string `json:"duration" bson:"duration"`
}

// Album is one entry of an artist's discography.
type Album struct {
	Title  string  `json:"title" bson:"title"`
	Year   string  `json:"year" bson:"year"`
	Image  string  `json:"image,omitempty" bson:"image,omitempty"`
	Rating float64 `json:"rating,omitempty" bson:"rating,omitempty"`
	Tracks []Track `json:"tracks,omitempty" bson:"tracks,omitempty"`
}

// Artist is a music-artist record as stored in the artists collection.
//
// DistanceMi is computed per search, never persisted: it is attached by the
// search engine when a record matched inside a radius.
type Artist struct {
	ID          string      `json:"_id,omitempty" bson:"_id,omitempty"`
	Name        string      `json:"name" bson:"name"`
	Genre       string      `json:"genre" bson:"genre"`
	Location    string      `json:"location,omitempty" bson:"location,omitempty"`
	Country     string      `json:"country,omitempty" bson:"country,omitempty"`
	City        string      `json:"city,omitempty" bson:"city,omitempty"`
	Summary     string      `json:"summary,omitempty" bson:"summary,omitempty"`
	Image       string      `json:"image,omitempty" bson:"image,omitempty"`
	Coordinates *Coordinate `json:"coordinates,omitempty" bson:"coordinates,omitempty"`
	Albums      []Album     `json:"albums" bson:"albums"`

	DistanceMi *float64 `json:"distance_mi,omitempty" bson:"-"`
}

// ArtistQuery is the structured filter accepted by the storage collaborator.
// Genre is case-insensitive equality; Country, City, and Location are
// case-insensitive substring matches on the record's location string,
// combined with AND semantics. A zero Limit means no limit.
type ArtistQuery struct {
	Genre    string
	Country  string
	City     string
	Location string
	Limit    int
}

// UpdateResult reports how many documents an update matched and modified.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
}

// ArtistStore is the document-store collaborator. Lookups by name or album
// title are case-insensitive exact matches and return (nil, nil) when no
// record exists, mirroring the find-one contract of the underlying store.
type ArtistStore interface {
	FindArtists(ctx context.Context, q ArtistQuery) ([]Artist, error)
	FindArtistByName(ctx context.Context, name string) (*Artist, error)
	FindArtistByAlbumTitle(ctx context.Context, title string) (*Artist, error)
	InsertArtist(ctx context.Context, artist Artist) (Artist, error)
	AppendAlbum(ctx context.Context, artistName string, album Album) (UpdateResult, error)

	// Backfill support: records that have a location string but no coordinates.
	FindArtistsMissingCoordinates(ctx context.Context, limit int) ([]Artist, error)
	SetCoordinates(ctx context.Context, id string, coord Coordinate) (UpdateResult, error)
}
