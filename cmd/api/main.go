package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ewilliams-labs/moodmatch/internal/adapters/hashembed"
	"github.com/ewilliams-labs/moodmatch/internal/adapters/lastfm"
	"github.com/ewilliams-labs/moodmatch/internal/adapters/ollama"
	"github.com/ewilliams-labs/moodmatch/internal/adapters/redis"
	"github.com/ewilliams-labs/moodmatch/internal/adapters/rest"
	"github.com/ewilliams-labs/moodmatch/internal/adapters/spotify"
	"github.com/ewilliams-labs/moodmatch/internal/adapters/sqlite"
	"github.com/ewilliams-labs/moodmatch/internal/adapters/tagcache"
	"github.com/ewilliams-labs/moodmatch/internal/adapters/taxonomy"
	"github.com/ewilliams-labs/moodmatch/internal/config"
	"github.com/ewilliams-labs/moodmatch/internal/core/ports"
	"github.com/ewilliams-labs/moodmatch/internal/core/services"
	"github.com/ewilliams-labs/moodmatch/internal/logging"
	"github.com/ewilliams-labs/moodmatch/internal/worker"
)

func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	})

	tax, err := taxonomy.Load(cfg.Taxonomy.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load taxonomy")
	}

	// 2. Driven adapters
	tracks := spotify.NewClient(nil, spotify.Config{
		ClientID:          cfg.Spotify.ClientID,
		ClientSecret:      cfg.Spotify.ClientSecret,
		BaseURL:           cfg.Spotify.BaseURL,
		TokenURL:          cfg.Spotify.TokenURL,
		Market:            cfg.Spotify.Market,
		Timeout:           cfg.Spotify.Timeout,
		MaxRetries:        cfg.Spotify.MaxRetries,
		RetryBackoff:      cfg.Spotify.RetryBackoff,
		RequestsPerSecond: cfg.Spotify.RequestsPerSecond,
	})

	var tags ports.TagSource = lastfm.NewClient(&http.Client{Timeout: cfg.LastFM.Timeout}, lastfm.Config{
		APIKey:            cfg.LastFM.APIKey,
		BaseURL:           cfg.LastFM.BaseURL,
		MaxRetries:        cfg.LastFM.MaxRetries,
		RetryBackoff:      cfg.LastFM.RetryBackoff,
		RequestsPerSecond: cfg.LastFM.RequestsPerSecond,
		MinTagCount:       cfg.LastFM.MinTagCount,
	})

	store, closeStore := openTagStore(cfg.Cache)
	defer closeStore()
	if store != nil {
		tags = tagcache.New(tags, store, cfg.Cache.Driver)
	}

	var embedder ports.Embedder
	switch cfg.Embedder.Driver {
	case "ollama":
		embedder = ollama.NewClient(nil, ollama.Config{
			BaseURL: cfg.Embedder.OllamaHost,
			Model:   cfg.Embedder.Model,
			Timeout: cfg.Embedder.Timeout,
		})
	default:
		logging.Warn().
			Str("driver", cfg.Embedder.Driver).
			Msg("hash embedder only matches shared spelling; synonyms will not match, use the ollama driver outside development")
		embedder = hashembed.New(cfg.Embedder.Dimensions)
	}

	// 3. Core
	pool := worker.NewPool(cfg.Pipeline.Workers, cfg.Pipeline.QueueSize)
	pool.Start()
	defer pool.Stop()

	svc := services.NewOrchestrator(
		tracks,
		services.NewTagAssigner(tags, tax, pool),
		services.NewMatcher(embedder),
		tax,
		services.WithTopN(cfg.Pipeline.TopN),
		services.WithCatalogLimit(cfg.Pipeline.CatalogLimit),
		services.WithSimilarityThreshold(cfg.Pipeline.SimilarityThreshold),
	)

	// 4. Driving adapter
	handler := rest.NewHandler(svc, rest.Options{
		RequestTimeout:    cfg.Server.RequestTimeout,
		RateLimitRequests: cfg.Server.RateLimitRequests,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
		CORSOrigins:       cfg.Server.CORSOrigins,
	})

	// 5. Start the server
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	logging.Info().
		Str("addr", cfg.Server.Addr).
		Str("embedder", cfg.Embedder.Driver).
		Str("cache", cfg.Cache.Driver).
		Int("seeds", tax.Len()).
		Int("workers", pool.Workers()).
		Msg("moodmatch API is running")

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			logging.Error().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		logging.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("shutdown error")
		}
	}
}

// openTagStore builds the configured tag store. A nil store means lookups
// go straight to Last.fm.
func openTagStore(cfg config.CacheConfig) (ports.TagStore, func()) {
	noop := func() {}

	switch cfg.Driver {
	case "none":
		return nil, noop
	case "memory":
		return tagcache.NewMemoryStore(cfg.TTL), noop
	case "sqlite":
		db, err := sqlite.NewAdapter(cfg.SQLitePath, cfg.TTL)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("failed to initialize tag database")
		}
		if pruned, err := db.Prune(context.Background()); err != nil {
			logging.Warn().Err(err).Msg("failed to prune expired tags")
		} else if pruned > 0 {
			logging.Info().Int64("rows", pruned).Msg("pruned expired tags")
		}
		return db, func() { db.Close() }
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rdb, err := redis.Dial(ctx, cfg.RedisURL)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to connect to redis")
		}
		return redis.NewStore(rdb, cfg.KeyPrefix, cfg.TTL), func() { rdb.Close() }
	default:
		logging.Fatal().Str("driver", cfg.Driver).Msg("unknown cache driver")
		return nil, noop
	}
}
