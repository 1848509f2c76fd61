package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/coveline/calldeck/internal/config"
	"github.com/coveline/calldeck/internal/logger"
	"github.com/coveline/calldeck/internal/server"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: calldeck [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Dashboard backend for a conversational-AI telephony provider.\n")
		fmt.Fprintf(os.Stderr, "Serves a REST API for agents and call history, and pushes live-call\n")
		fmt.Fprintf(os.Stderr, "snapshots to dashboards over WebSocket.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  calldeck --config calldeck.yaml\n")
		fmt.Fprintf(os.Stderr, "  CALLDECK_UPSTREAM_API_KEY=sk-... calldeck --config /etc/calldeck.yaml\n")
	}

	configPath := flag.String("config", "calldeck.yaml", "path to YAML config file")
	flag.Parse()

	// .env is a development convenience for the upstream API key; absence is
	// not an error.
	if err := godotenv.Load(); err == nil {
		fmt.Fprintln(os.Stderr, "loaded environment from .env")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "calldeck: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Logging)

	s := server.New(cfg)
	if err := s.Start(); err != nil {
		log.Fatal().Err(err).Msg("start failed")
	}

	stopWatch, err := config.Watch(*configPath, s.ApplyConfig)
	if err != nil {
		log.Warn().Err(err).Msg("config hot-reload disabled")
	} else {
		defer stopWatch()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	s.Stop()
}
