package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cfyby/artist-api/internal/domain"
	"github.com/cfyby/artist-api/internal/observability"
)

// Store is the slice of the artist store the API needs, plus the readiness
// probe used by /readyz.
type Store interface {
	domain.ArtistStore
	CheckReadiness(ctx context.Context) error
}

// CloudAPI is the remote artist service used by /cloud/artists.
type CloudAPI interface {
	Get(ctx context.Context, path string) (map[string]any, error)
}

// ServerOptions wires the API's collaborators. Cloud and Tokens may be nil:
// without Cloud the /cloud/artists endpoint reports the service as
// unconfigured, and without Tokens the write endpoints are open.
type ServerOptions struct {
	Addr    string
	Store   Store
	Search  *domain.SearchEngine
	Cloud   CloudAPI
	Tokens  *TokenService
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// Server is the artist API HTTP server.
type Server struct {
	httpServer *http.Server

	store   Store
	search  *domain.SearchEngine
	cloud   CloudAPI
	tokens  *TokenService
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewServer builds the router and the underlying HTTP server.
func NewServer(opts ServerOptions) *Server {
	s := &Server{
		store:   opts.Store,
		search:  opts.Search,
		cloud:   opts.Cloud,
		tokens:  opts.Tokens,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", s.handleIndex)
	router.GET("/healthz", s.handleHealth)
	router.GET("/readyz", s.handleReady)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/artists", s.handleSearchArtists)
	router.GET("/artists/genre", s.handleArtistsByGenre)
	router.GET("/artists/location", s.handleArtistsByGenreLocation)
	router.GET("/artists/:name", s.handleArtistByName)
	router.GET("/artists/:name/description", s.handleArtistDescription)
	router.GET("/artists/:name/image", s.handleArtistImage)
	router.GET("/artists/:name/albums", s.handleArtistAlbums)
	router.GET("/albums/:title/description", s.handleAlbumDescription)

	router.GET("/cloud/artists", s.handleCloudArtists)

	if s.tokens != nil {
		router.POST("/auth/token", s.handleIssueToken)
	}
	write := router.Group("/", s.requireToken())
	write.POST("/artists/register", s.handleRegisterArtist)
	write.POST("/artists/register/discography", s.handleRegisterDiscography)

	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "CFYBY API",
		"version": "1.0.0",
		"status":  "ok",
		"endpoints": gin.H{
			"artists":            "/artists",
			"artist_by_name":     "/artists/{name}",
			"artist_description": "/artists/{name}/description",
			"artist_image":       "/artists/{name}/image",
			"artist_albums":      "/artists/{name}/albums",
			"album_description":  "/albums/{title}/description",
			"cloud_artists":      "/cloud/artists",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.CheckReadiness(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) handleIssueToken(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "username and password are required"})
		return
	}

	token, err := s.tokens.Issue(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid username or password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// requireToken protects write endpoints. When no token service is configured
// the endpoints are open, matching a deployment without credentials set.
func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.tokens == nil {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if header == "" || tokenString == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Missing bearer token"})
			return
		}

		username, err := s.tokens.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid or expired token"})
			return
		}
		c.Set("username", username)
		c.Next()
	}
}
