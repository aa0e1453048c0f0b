package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/tour-eats/internal/api"
	"github.com/baechuer/tour-eats/internal/config"
	"github.com/baechuer/tour-eats/internal/downstream"
	"github.com/baechuer/tour-eats/internal/explore"
	"github.com/baechuer/tour-eats/internal/logger"
	"github.com/baechuer/tour-eats/internal/normalize"
	"github.com/baechuer/tour-eats/internal/thumbnail"
	"github.com/baechuer/tour-eats/internal/tracing"
)

// App holds all dependencies for the service
type App struct {
	Config *config.Config
	Server *http.Server
	Redis  *redis.Client
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// credentials are checked before anything touches the network
		zlog.Fatal().Err(err).Msg("config invalid")
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.InitTracing(ctx, tracing.Config{
		ServiceName:  cfg.ServiceName,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Insecure:     cfg.OTLPInsecure,
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("tracing init failed")
	}

	app := NewApp(cfg)

	go func() {
		logger.Log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("server crashed")
		}
	}()

	<-ctx.Done()
	logger.Log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("server shutdown failed")
	}
	if app.Redis != nil {
		_ = app.Redis.Close()
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Log.Warn().Err(err).Msg("tracer shutdown failed")
	}
}

func NewApp(cfg *config.Config) *App {
	// 1) Infrastructure
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb = redis.NewClient(opt)
		logger.Log.Info().Str("addr", opt.Addr).Msg("redis rate limiter enabled")
	}

	places, images := downstream.NewGateways(cfg)

	// 2) Application
	thumb := thumbnail.DefaultOptions()
	thumb.MaxWidth = cfg.ThumbnailWidth
	thumb.MaxHeight = cfg.ThumbnailWidth

	svc := explore.NewService(places, images, explore.Options{
		NearbyPause: cfg.NearbyPause,
		Policy:      normalize.NewPolicy(cfg.RejectLatinAddresses, normalize.DefaultPlaceholders...),
		Thumbnail:   thumb,
	})

	// 3) Transport
	handler := api.NewRouter(cfg, api.Deps{Explorer: svc, Redis: rdb})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	return &App{Config: cfg, Server: srv, Redis: rdb}
}
