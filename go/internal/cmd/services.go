package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/quizlive/go/internal/config"
	"github.com/mcdev12/quizlive/go/internal/game"
	"github.com/mcdev12/quizlive/go/internal/gateway"
	"github.com/mcdev12/quizlive/go/internal/lifecycle"
	"github.com/mcdev12/quizlive/go/internal/registry"
)

type Services struct {
	Registry    *registry.Registry
	Connections *gateway.ConnectionManager
	Publisher   lifecycle.EventPublisher
	Lifecycle   *lifecycle.Dispatcher
	Handler     *gateway.Handler
}

func setupServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	// Lifecycle events → registry → gateway

	publisher, err := setupPublisher(ctx, cfg)
	if err != nil {
		return nil, err
	}
	dispatcher := lifecycle.NewDispatcher(publisher, lifecycle.DefaultConfig())

	reg := registry.New(registry.Settings{
		EvictionGrace: cfg.EvictionGrace,
		SweepInterval: cfg.SweepInterval,
		Defaults:      cfg.Defaults,
		Session: game.Settings{
			HostIdleTimeout: cfg.HostIdleTimeout,
			Notifier:        dispatcher,
		},
	})

	connConfig := gateway.DefaultConnectionConfig()
	connConfig.SendBuffer = cfg.SendBuffer
	connConfig.MaxMessageSize = cfg.MaxMessageSize
	connConfig.PingInterval = cfg.PingInterval
	connConfig.ReadTimeout = cfg.ReadTimeout
	connConfig.WriteTimeout = cfg.WriteTimeout
	connections := gateway.NewConnectionManager(connConfig)

	return &Services{
		Registry:    reg,
		Connections: connections,
		Publisher:   publisher,
		Lifecycle:   dispatcher,
		Handler:     gateway.NewHandler(reg, connections, dispatcher),
	}, nil
}

func setupPublisher(ctx context.Context, cfg *config.Config) (lifecycle.EventPublisher, error) {
	if cfg.NATSURL == "" {
		log.Info().Msg("NATS_URL not set, lifecycle events go to the log")
		return lifecycle.NewLogPublisher(), nil
	}

	jsConfig := lifecycle.DefaultJetStreamConfig()
	jsConfig.URL = cfg.NATSURL
	jsConfig.StreamName = cfg.NATSStream
	jsConfig.SubjectPrefix = cfg.NATSSubjectPrefix

	publisher, err := lifecycle.NewJetStreamPublisher(ctx, jsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to set up JetStream publisher: %w", err)
	}
	log.Info().
		Str("nats_url", jsConfig.URL).
		Str("stream", jsConfig.StreamName).
		Msg("publishing lifecycle events to JetStream")
	return publisher, nil
}
