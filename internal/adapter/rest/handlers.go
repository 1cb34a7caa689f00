package rest

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cfyby/artist-api/internal/adapter/cloud"
	"github.com/cfyby/artist-api/internal/domain"
)

// handleSearchArtists serves GET /artists. Genre filtering happens in the
// store; the free-text and radius filters run in the search engine so that a
// failed geocode degrades to substring matching instead of erroring.
func (s *Server) handleSearchArtists(c *gin.Context) {
	s.metrics.SearchRequests.Inc()
	start := time.Now()

	req := domain.SearchRequest{
		Country:  c.Query("country"),
		City:     c.Query("city"),
		Location: c.Query("location"),
	}

	var parseErr error
	req.Latitude = queryFloat(c, "latitude", &parseErr)
	req.Longitude = queryFloat(c, "longitude", &parseErr)
	req.RadiusMiles = queryFloat(c, "radius", &parseErr)
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": parseErr.Error()})
		return
	}

	candidates, err := s.store.FindArtists(c.Request.Context(), domain.ArtistQuery{Genre: c.Query("genre")})
	if err != nil {
		s.logger.Error("artist search query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	results, mode := s.search.Search(c.Request.Context(), candidates, req)
	s.metrics.SearchDuration.Observe(time.Since(start).Seconds())
	if mode.Spatial {
		s.metrics.SpatialSearches.Inc()
	}
	if mode.Degraded {
		s.metrics.SpatialFallbacks.Inc()
	}

	if len(results) == 0 && req.Location != "" {
		c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("Location '%s' not found.", req.Location)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": nonNil(results)})
}

// handleArtistsByGenre serves GET /artists/genre, returning up to n artists
// of one genre.
func (s *Server) handleArtistsByGenre(c *gin.Context) {
	genre := c.Query("genre")
	n, err := strconv.Atoi(c.Query("n"))
	if genre == "" || err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "genre and a non-negative integer n are required"})
		return
	}

	artists, err := s.store.FindArtists(c.Request.Context(), domain.ArtistQuery{Genre: genre, Limit: n})
	if err != nil {
		s.logger.Error("genre query failed", "genre", genre, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": nonNil(artists)})
}

// handleArtistsByGenreLocation serves GET /artists/location, combining a
// genre with a location substring.
func (s *Server) handleArtistsByGenreLocation(c *gin.Context) {
	genre := c.Query("genre")
	location := c.Query("location")
	n, err := strconv.Atoi(c.Query("n"))
	if genre == "" || location == "" || err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "genre, location, and a non-negative integer n are required"})
		return
	}

	artists, err := s.store.FindArtists(c.Request.Context(), domain.ArtistQuery{Genre: genre, Location: location, Limit: n})
	if err != nil {
		s.logger.Error("genre/location query failed", "genre", genre, "location", location, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": nonNil(artists)})
}

func (s *Server) lookupArtist(c *gin.Context) (*domain.Artist, bool) {
	name := c.Param("name")
	artist, err := s.store.FindArtistByName(c.Request.Context(), name)
	if err != nil {
		s.logger.Error("artist lookup failed", "name", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return nil, false
	}
	if artist == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("No artist found with name '%s'!", name)})
		return nil, false
	}
	return artist, true
}

func (s *Server) handleArtistByName(c *gin.Context) {
	artist, ok := s.lookupArtist(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, artist)
}

func (s *Server) handleArtistDescription(c *gin.Context) {
	artist, ok := s.lookupArtist(c)
	if !ok {
		return
	}
	summary := artist.Summary
	if summary == "" {
		summary = "No summary available"
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (s *Server) handleArtistImage(c *gin.Context) {
	artist, ok := s.lookupArtist(c)
	if !ok {
		return
	}
	var image any
	if artist.Image != "" {
		image = artist.Image
	}
	c.JSON(http.StatusOK, gin.H{"image": image})
}

func (s *Server) handleArtistAlbums(c *gin.Context) {
	artist, ok := s.lookupArtist(c)
	if !ok {
		return
	}
	albums := artist.Albums
	if albums == nil {
		albums = []domain.Album{}
	}
	c.JSON(http.StatusOK, gin.H{"albums": albums})
}

// handleAlbumDescription serves GET /albums/:title/description, returning the
// full album entry from whichever artist owns it.
func (s *Server) handleAlbumDescription(c *gin.Context) {
	title := c.Param("title")
	artist, err := s.store.FindArtistByAlbumTitle(c.Request.Context(), title)
	if err != nil {
		s.logger.Error("album lookup failed", "title", title, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	if artist != nil {
		want := strings.TrimSpace(strings.ToLower(title))
		for _, album := range artist.Albums {
			if strings.TrimSpace(strings.ToLower(album.Title)) == want {
				c.JSON(http.StatusOK, album)
				return
			}
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("No album title found with name '%s'!", title)})
}

// handleCloudArtists proxies GET /cloud/artists to the remote artist service,
// mapping each failure class to its own status code.
func (s *Server) handleCloudArtists(c *gin.Context) {
	if s.cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Cloud service is not configured."})
		return
	}

	params := url.Values{}
	for _, key := range []string{"genre", "country", "city"} {
		if v := c.Query(key); v != "" {
			params.Set(key, v)
		}
	}
	path := "/artists"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	s.logger.Info("fetching artists from cloud service", "params", params.Encode())
	data, err := s.cloud.Get(c.Request.Context(), path)
	if err != nil {
		s.respondCloudError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"source":  "cloud_service",
		"data":    data,
		"message": "Successfully retrieved data from cloud service",
	})
}

func (s *Server) respondCloudError(c *gin.Context, err error) {
	var cloudErr *cloud.Error
	if !errors.As(err, &cloudErr) {
		s.logger.Error("unexpected cloud service failure", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	s.logger.Error("cloud service request failed", "kind", cloudErr.Kind.String(), "error", cloudErr)
	switch cloudErr.Kind {
	case cloud.KindAuthentication:
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Failed to authenticate with cloud service. Check configuration."})
	case cloud.KindTimeout:
		c.JSON(http.StatusGatewayTimeout, gin.H{"detail": "Cloud service request timed out. Please try again later."})
	case cloud.KindConnection:
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Unable to connect to cloud service. Please try again later."})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"detail": fmt.Sprintf("Error communicating with cloud service: %s", cloudErr.Message)})
	}
}

type registerArtistRequest struct {
	Genre    string `json:"genre" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Location string `json:"location" binding:"required"`
	Summary  string `json:"summary"`
	Image    string `json:"image"`
}

// handleRegisterArtist serves POST /artists/register. Names are unique
// case-insensitively; a duplicate is a 409.
func (s *Server) handleRegisterArtist(c *gin.Context) {
	var req registerArtistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "genre, name, and location are required"})
		return
	}

	artist := domain.Artist{
		Genre:    strings.ToLower(strings.TrimSpace(req.Genre)),
		Name:     strings.TrimSpace(req.Name),
		Location: strings.TrimSpace(req.Location),
		Summary:  strings.TrimSpace(req.Summary),
		Image:    strings.TrimSpace(req.Image),
		Albums:   []domain.Album{},
	}

	existing, err := s.store.FindArtistByName(c.Request.Context(), artist.Name)
	if err != nil {
		s.logger.Error("duplicate check failed", "name", artist.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"detail": fmt.Sprintf("Artist '%s' already exists in our data", req.Name)})
		return
	}

	inserted, err := s.store.InsertArtist(c.Request.Context(), artist)
	if err != nil {
		s.logger.Error("artist insert failed", "name", artist.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	s.logger.Info("artist registered", "name", inserted.Name, "genre", inserted.Genre)
	c.JSON(http.StatusOK, gin.H{"message": "Artist registered successfully", "artist": inserted})
}

type registerDiscographyRequest struct {
	Title  string         `json:"title" binding:"required"`
	Year   string         `json:"year" binding:"required"`
	Image  string         `json:"image"`
	Rating float64        `json:"rating"`
	Tracks []domain.Track `json:"tracks"`
}

// handleRegisterDiscography serves POST /artists/register/discography,
// appending one album to an existing artist named by the artist_name query
// parameter.
func (s *Server) handleRegisterDiscography(c *gin.Context) {
	artistName := c.Query("artist_name")
	if artistName == "" {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Artist name is required"})
		return
	}

	var req registerDiscographyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "title and year are required"})
		return
	}

	album := domain.Album{
		Title:  req.Title,
		Year:   req.Year,
		Image:  req.Image,
		Rating: req.Rating,
		Tracks: req.Tracks,
	}

	result, err := s.store.AppendAlbum(c.Request.Context(), artistName, album)
	if err != nil {
		s.logger.Error("discography update failed", "artist", artistName, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("Artist '%s' does not exist in our data", artistName)})
		return
	}
	if result.ModifiedCount == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to update artist discography."})
		return
	}

	s.logger.Info("discography registered", "artist", artistName, "album", album.Title)
	c.JSON(http.StatusOK, gin.H{"message": "Artist discography registered successfully", "artist": artistName})
}

// queryFloat parses an optional float query parameter, accumulating the first
// parse failure into errOut.
func queryFloat(c *gin.Context, key string, errOut *error) *float64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if *errOut == nil {
			*errOut = fmt.Errorf("invalid %s parameter: %q", key, raw)
		}
		return nil
	}
	return &v
}

// nonNil keeps empty result sets serializing as [] instead of null.
func nonNil(artists []domain.Artist) []domain.Artist {
	if artists == nil {
		return []domain.Artist{}
	}
	return artists
}
