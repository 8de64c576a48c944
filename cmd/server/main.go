// Package main provides the quote HTTP server.
package main

import (
	"context"
	"time"

	"movequote/api"
	"movequote/internal/history"
	"movequote/internal/modules"
	"movequote/internal/secure"
	"movequote/internal/service"
	"movequote/internal/store"
	"movequote/pkg/platform"
)

func main() {
	log := platform.InitLogger()

	reg, err := modules.NewRegistry()
	if err != nil {
		log.Fatal().Err(err).Msg("module registry validation failed")
	}

	secret := platform.GetEnv("QUOTE_SIGNING_SECRET", "")
	if secret == "" {
		log.Fatal().Msg("QUOTE_SIGNING_SECRET is required")
	}

	quoter := service.NewQuoter(reg, secure.NewSigner([]byte(secret)), log)

	cfg := api.DefaultConfig()
	cfg.Port = platform.GetEnvInt("PORT", 8080)
	server := api.NewServer(quoter, cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if dsn := platform.GetEnv("POSTGRES_DSN", ""); dsn != "" {
		pg, err := store.NewPostgres(dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connection failed")
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("postgres schema setup failed")
		}
		server.WithQuoteStore(pg)
		log.Info().Msg("quote persistence enabled")
	}

	if host := platform.GetEnv("CLICKHOUSE_HOST", ""); host != "" {
		hcfg := history.DefaultConfig()
		hcfg.Host = host
		hcfg.Port = platform.GetEnvInt("CLICKHOUSE_PORT", 9000)
		hcfg.Database = platform.GetEnv("CLICKHOUSE_DATABASE", "movequote")
		hcfg.Username = platform.GetEnv("CLICKHOUSE_USER", "default")
		hcfg.Password = platform.GetEnv("CLICKHOUSE_PASSWORD", "")
		ch, err := history.NewStore(hcfg)
		if err != nil {
			log.Fatal().Err(err).Msg("clickhouse connection failed")
		}
		defer ch.Close()
		if err := ch.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("clickhouse schema setup failed")
		}
		server.WithRecorder(ch)
		log.Info().Msg("calculation history enabled")
	}

	if err := server.StartWithGracefulShutdown(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
