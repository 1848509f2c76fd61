// Package server assembles the calldeck process: upstream client, live-call
// hub, WebSocket endpoint, and REST router behind one http.Server.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coveline/calldeck/internal/agents"
	"github.com/coveline/calldeck/internal/api"
	"github.com/coveline/calldeck/internal/config"
	"github.com/coveline/calldeck/internal/livecalls"
	"github.com/coveline/calldeck/internal/logger"
	"github.com/coveline/calldeck/internal/upstream"
	"github.com/coveline/calldeck/internal/wslive"
)

// Server is the running calldeck process.
type Server struct {
	cfg   *config.Config
	hub   *livecalls.Hub
	httpd *http.Server
}

// New wires the process together. The hub is the process-wide singleton that
// owns live-call state; nothing else holds a mutable reference to it.
func New(cfg *config.Config) *Server {
	up := upstream.New(cfg.Upstream.BaseURL, cfg.Upstream.APIKey,
		upstream.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout()}),
		upstream.WithPageSize(cfg.Upstream.PageSize),
	)

	builder := livecalls.NewBuilder(up, cfg.Staleness())
	hub := livecalls.NewHub(builder, cfg.PollInterval())
	ws := wslive.NewServer(hub, cfg.Server.AuthToken, cfg.Server.AllowedOrigins)
	registry := agents.NewRegistry(up, agents.DefaultTTL)
	router := api.NewRouter(registry, up, ws)

	return &Server{
		cfg: cfg,
		hub: hub,
		httpd: &http.Server{
			Addr:              cfg.Server.Listen,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start begins serving in the background.
func (s *Server) Start() error {
	log.Info().Str("listen", s.cfg.Server.Listen).Msg("calldeck server starting")
	go func() {
		if err := s.httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	return nil
}

// Stop shuts down the HTTP server and the poll loop.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpd.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	s.hub.Close()
	log.Info().Msg("calldeck server stopped")
}

// ApplyConfig applies the runtime-tunable parts of a reloaded config: the
// poll interval and the log level. Listener and upstream settings require a
// restart.
func (s *Server) ApplyConfig(cfg *config.Config) {
	s.hub.SetInterval(cfg.PollInterval())
	zerolog.SetGlobalLevel(logger.ParseLevel(cfg.Logging.Level))
	log.Info().
		Int("poll_interval_ms", cfg.Live.PollIntervalMs).
		Str("log_level", cfg.Logging.Level).
		Msg("config reloaded")
}
