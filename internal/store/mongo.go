package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/cfyby/artist-api/internal/domain"
)

const artistsCollection = "artists"

// MongoStore implements domain.ArtistStore on a MongoDB artists collection.
// Name and album-title lookups are anchored case-insensitive regex matches,
// so "nirvana" finds "Nirvana" but not "Nirvana Tribute".
type MongoStore struct {
	client  *mongo.Client
	artists *mongo.Collection
	logger  *slog.Logger
}

// NewMongoStore connects to MongoDB and verifies the connection with a ping.
func NewMongoStore(ctx context.Context, url, database string, logger *slog.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &MongoStore{
		client:  client,
		artists: client.Database(database).Collection(artistsCollection),
		logger:  logger,
	}, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// CheckReadiness pings the server; used by the readiness endpoint.
func (s *MongoStore) CheckReadiness(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// exactMatch builds an anchored case-insensitive regex for a literal value.
func exactMatch(value string) bson.M {
	return bson.M{"$regex": "^" + regexp.QuoteMeta(value) + "$", "$options": "i"}
}

// substringMatch builds an unanchored case-insensitive regex for a literal value.
func substringMatch(value string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(value), "$options": "i"}
}

// FindArtists returns artists matching the query. Genre is an exact
// case-insensitive match; Country, City, and Location all match as
// substrings of the record's location string.
func (s *MongoStore) FindArtists(ctx context.Context, q domain.ArtistQuery) ([]domain.Artist, error) {
	var clauses []bson.M
	if q.Genre != "" {
		clauses = append(clauses, bson.M{"genre": exactMatch(q.Genre)})
	}
	for _, v := range []string{q.Country, q.City, q.Location} {
		if v != "" {
			clauses = append(clauses, bson.M{"location": substringMatch(v)})
		}
	}

	filter := bson.M{}
	if len(clauses) > 0 {
		filter = bson.M{"$and": clauses}
	}

	opts := options.Find()
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.artists.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find artists: %w", err)
	}
	defer cursor.Close(ctx)

	var artists []domain.Artist
	if err := cursor.All(ctx, &artists); err != nil {
		return nil, fmt.Errorf("decode artists: %w", err)
	}
	return artists, nil
}

// FindArtistByName returns the artist with the given name, or (nil, nil) when
// no record matches.
func (s *MongoStore) FindArtistByName(ctx context.Context, name string) (*domain.Artist, error) {
	var artist domain.Artist
	err := s.artists.FindOne(ctx, bson.M{"name": exactMatch(name)}).Decode(&artist)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find artist %q: %w", name, err)
	}
	return &artist, nil
}

// FindArtistByAlbumTitle returns the artist owning an album with the given
// title, or (nil, nil) when no record matches.
func (s *MongoStore) FindArtistByAlbumTitle(ctx context.Context, title string) (*domain.Artist, error) {
	var artist domain.Artist
	err := s.artists.FindOne(ctx, bson.M{"albums.title": exactMatch(title)}).Decode(&artist)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find artist by album %q: %w", title, err)
	}
	return &artist, nil
}

// InsertArtist stores a new artist record, assigning an ID when absent.
func (s *MongoStore) InsertArtist(ctx context.Context, artist domain.Artist) (domain.Artist, error) {
	if artist.ID == "" {
		artist.ID = bson.NewObjectID().Hex()
	}
	if _, err := s.artists.InsertOne(ctx, artist); err != nil {
		return domain.Artist{}, fmt.Errorf("insert artist %q: %w", artist.Name, err)
	}
	return artist, nil
}

// InsertArtists stores a batch of artist records; used by the seeder.
func (s *MongoStore) InsertArtists(ctx context.Context, artists []domain.Artist) (int, error) {
	if len(artists) == 0 {
		return 0, nil
	}
	docs := make([]any, 0, len(artists))
	for _, a := range artists {
		if a.ID == "" {
			a.ID = bson.NewObjectID().Hex()
		}
		docs = append(docs, a)
	}
	result, err := s.artists.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("insert artists: %w", err)
	}
	return len(result.InsertedIDs), nil
}

// DeleteAllArtists drops every record in the collection; used by the seeder.
func (s *MongoStore) DeleteAllArtists(ctx context.Context) (int64, error) {
	result, err := s.artists.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("delete artists: %w", err)
	}
	return result.DeletedCount, nil
}

// AppendAlbum pushes an album onto the named artist's discography.
func (s *MongoStore) AppendAlbum(ctx context.Context, artistName string, album domain.Album) (domain.UpdateResult, error) {
	result, err := s.artists.UpdateOne(ctx,
		bson.M{"name": exactMatch(artistName)},
		bson.M{"$push": bson.M{"albums": album}},
	)
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("append album to %q: %w", artistName, err)
	}
	return domain.UpdateResult{
		MatchedCount:  result.MatchedCount,
		ModifiedCount: result.ModifiedCount,
	}, nil
}

// FindArtistsMissingCoordinates returns records that have a location string
// but no stored coordinates. A missing or null coordinates field both match.
func (s *MongoStore) FindArtistsMissingCoordinates(ctx context.Context, limit int) ([]domain.Artist, error) {
	filter := bson.M{
		"location":    bson.M{"$exists": true, "$ne": ""},
		"coordinates": nil,
	}

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.artists.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find artists missing coordinates: %w", err)
	}
	defer cursor.Close(ctx)

	var artists []domain.Artist
	if err := cursor.All(ctx, &artists); err != nil {
		return nil, fmt.Errorf("decode artists: %w", err)
	}
	return artists, nil
}

// SetCoordinates stores resolved coordinates on a record.
func (s *MongoStore) SetCoordinates(ctx context.Context, id string, coord domain.Coordinate) (domain.UpdateResult, error) {
	result, err := s.artists.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"coordinates": coord}},
	)
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("set coordinates on %s: %w", id, err)
	}
	return domain.UpdateResult{
		MatchedCount:  result.MatchedCount,
		ModifiedCount: result.ModifiedCount,
	}, nil
}
