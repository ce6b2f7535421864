package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danmuck/hexrelay/internal/observability"
	"github.com/danmuck/hexrelay/internal/relay"
	"github.com/rs/zerolog"
)

var (
	ErrMissingName            = errors.New("server: missing name")
	ErrMissingAddr            = errors.New("server: missing addr")
	ErrInvalidShutdownTimeout = errors.New("server: invalid shutdown timeout")
	ErrTLSCertFileRequired    = errors.New("server: tls cert file required")
	ErrTLSKeyFileRequired     = errors.New("server: tls key file required")
)

// TLSConfig enables HTTPS/WSS when both files are set.
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

func (c TLSConfig) Enabled() bool {
	return strings.TrimSpace(c.CertFile) != "" || strings.TrimSpace(c.KeyFile) != ""
}

// ServiceConfig configures the relay daemon.
type ServiceConfig struct {
	Name             string
	Addr             string
	CorsOrigins      []string
	Workers          int
	SubscriberBuffer int
	MaxBodyBytes     int64
	ShutdownTimeout  time.Duration
	IngestToken      string
	TLS              TLSConfig
	Log              observability.LogOptions
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:             "hexrelay",
		Addr:             ":3000",
		CorsOrigins:      []string{},
		Workers:          relay.DefaultWorkers,
		SubscriberBuffer: relay.DefaultSubscriberBuffer,
		MaxBodyBytes:     DefaultMaxBodyBytes,
		ShutdownTimeout:  5 * time.Second,
	}
}

func (cfg ServiceConfig) Validate() error {
	if strings.TrimSpace(cfg.Name) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return ErrMissingAddr
	}
	if cfg.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}
	if cfg.TLS.Enabled() {
		if strings.TrimSpace(cfg.TLS.CertFile) == "" {
			return ErrTLSCertFileRequired
		}
		if strings.TrimSpace(cfg.TLS.KeyFile) == "" {
			return ErrTLSKeyFileRequired
		}
	}
	return nil
}

// Service owns the relay process lifecycle: hub, decode pipeline and HTTP server.
type Service struct {
	cfg    ServiceConfig
	logger zerolog.Logger
}

func NewService(cfg ServiceConfig, logger zerolog.Logger) *Service {
	return &Service{cfg: cfg, logger: logger}
}

// Run serves until SIGINT/SIGTERM.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx)
}

// Serve runs the relay until ctx is done, then drains in order: HTTP
// listener, decode pipeline, subscribers.
func (s *Service) Serve(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	hub := relay.NewHub(s.cfg.SubscriberBuffer)
	pipeline, err := relay.NewPipeline(hub, s.cfg.Workers, s.logger)
	if err != nil {
		return err
	}
	api := New(Options{
		Name:         s.cfg.Name,
		CorsOrigins:  s.cfg.CorsOrigins,
		MaxBodyBytes: s.cfg.MaxBodyBytes,
		IngestToken:  s.cfg.IngestToken,
	}, hub, pipeline, s.logger)

	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		tls := s.cfg.TLS.Enabled()
		s.logger.Info().Str("addr", s.cfg.Addr).Bool("tls", tls).Str("version", Version).Msg("hexrelay listening")
		var err error
		if tls {
			err = httpServer.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			serveErr = fmt.Errorf("server: listen %s: %w", s.cfg.Addr, err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn().Err(err).Msg("hexrelay http shutdown")
	}
	if err := pipeline.Close(s.cfg.ShutdownTimeout); err != nil {
		s.logger.Warn().Err(err).Msg("hexrelay pipeline drain")
	}
	hub.Close()
	s.logger.Info().Msg("hexrelay stopped")
	return serveErr
}
