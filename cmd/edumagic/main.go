// Package main is the entry point for the edumagic backend.
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/edumagic/edumagic/internal/cache"
	"github.com/edumagic/edumagic/internal/config"
	"github.com/edumagic/edumagic/internal/imagegen"
	"github.com/edumagic/edumagic/internal/keys"
	"github.com/edumagic/edumagic/internal/lesson"
	"github.com/edumagic/edumagic/internal/server"
	"github.com/edumagic/edumagic/internal/store"
)

func main() {
	// config.Load pulls in .env first, so the snapshot below sees every
	// credential the operator configured either way.
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.Logging.Level != "" {
		level, err := log.ParseLevel(cfg.Logging.Level)
		if err != nil {
			log.Fatalf("invalid log level %q: %v", cfg.Logging.Level, err)
		}
		log.SetLevel(level)
	}

	rotator := keys.NewRotator(keys.NewResolver(keys.SnapshotFromEnviron()))

	timeout := cfg.Providers.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	generator := lesson.NewGenerator(rotator, client, lesson.GeneratorConfig{
		GeminiBaseURL: cfg.Providers.GeminiBaseURL,
		GeminiModel:   cfg.Providers.GeminiModel,
		OpenAIBaseURL: cfg.Providers.OpenAIBaseURL,
		OpenAIModel:   cfg.Providers.OpenAIModel,
	})
	assistant := lesson.NewAssistant(rotator, client, cfg.Providers.GeminiBaseURL, cfg.Providers.GeminiModel)

	var gatewayOpts []imagegen.Option
	if cfg.Redis.Addr != "" {
		urlCache, err := cache.New(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			// The cache is an optimization; a down Redis must not stop boot.
			log.Warnf("redis unavailable, image caching disabled: %v", err)
		} else {
			defer urlCache.Close()
			gatewayOpts = append(gatewayOpts, imagegen.WithCache(urlCache))
		}
	}
	images := imagegen.NewGateway(rotator, client, gatewayOpts...)

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = "edumagic.db"
	}
	st, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	srv := server.New(cfg, generator, assistant, images, st, rotator.Resolver())

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Infof("edumagic listening on :%d", cfg.Server.Port)

	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
