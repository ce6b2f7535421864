package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/hexrelay/internal/observability"
	"github.com/danmuck/hexrelay/internal/relay"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const Version = "0.1.0"

// Server is the relay HTTP surface: codec endpoints, bus ingest and the
// subscriber stream.
type Server struct {
	name         string
	router       *gin.Engine
	hub          *relay.Hub
	pipeline     *relay.Pipeline
	logger       zerolog.Logger
	maxBodyBytes int64
	ingestToken  string
	appeared     time.Time
}

// Options configures New.
type Options struct {
	Name         string
	CorsOrigins  []string
	MaxBodyBytes int64
	// IngestToken, when set, is the bearer token /v1/ingest requires.
	IngestToken string
}

func New(opts Options, hub *relay.Hub, pipeline *relay.Pipeline, logger zerolog.Logger) *Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger, "/health", "/ready", "/metrics"))
	r.Use(observability.RequestMetricsMiddleware(opts.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(opts.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	if hub == nil {
		hub = relay.NewHub(0)
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	s := &Server{
		name:         opts.Name,
		router:       r,
		hub:          hub,
		pipeline:     pipeline,
		logger:       logger,
		maxBodyBytes: maxBody,
		ingestToken:  strings.TrimSpace(opts.IngestToken),
		appeared:     time.Now(),
	}
	s.RegisterRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	return out
}
