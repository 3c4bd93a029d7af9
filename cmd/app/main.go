package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"genv-studio/internal/config"
	"genv-studio/internal/domain/ports/adapter"
	"genv-studio/internal/domain/ports/repository"
	promptAdapters "genv-studio/internal/infra/adapters/prompt"
	"genv-studio/internal/infra/adapters/veo"
	"genv-studio/internal/infra/api"
	pg "genv-studio/internal/infra/db/postgres"
	"genv-studio/internal/infra/logging"
	"genv-studio/internal/infra/metrics"
	red "genv-studio/internal/infra/redis"
	"genv-studio/internal/infra/sched"
	"genv-studio/internal/infra/storage"
	"genv-studio/internal/infra/worker"
	"genv-studio/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, open API)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("postgres schema")
	}

	// ---- Redis (optional) ----
	var statusCache *red.StatusCache
	if redisClient, err := red.NewClient(ctx, &cfg.Redis); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, status cache disabled")
	} else {
		defer redisClient.Close()
		statusCache = red.NewStatusCache(redisClient, cfg.Redis.TTL)
	}

	// ---- Blob storage ----
	blobs, err := storage.NewGCS(ctx, cfg.Storage.Bucket)
	if err != nil {
		logger.Fatal().Err(err).Msg("gcs")
	}
	defer blobs.Close()

	// ---- Video generation adapter ----
	var gen adapter.VideoGenAdapter
	if cfg.Veo.UseMocks {
		gen = veo.NewMockAdapter(cfg.Veo.MockPollsDone)
		logger.Warn().Msg("veo adapter: mocks")
	} else {
		gen, err = veo.NewGenAIAdapter(ctx, cfg.Veo)
		if err != nil {
			logger.Fatal().Err(err).Msg("veo adapter")
		}
		logger.Info().Str("model", cfg.Veo.Model).Msg("veo adapter: genai")
	}

	// ---- Prompt adapter (gemini -> openai -> none) ----
	var prompter adapter.PromptAdapter
	switch cfg.Prompt.Provider {
	case "gemini":
		prompter, err = promptAdapters.NewGeminiAdapter(ctx, cfg.Veo, cfg.Prompt.Model)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini prompt adapter")
		}
	case "openai":
		prompter, err = promptAdapters.NewOpenAIAdapter(cfg.Prompt.OpenAIKey, cfg.Prompt.Model, cfg.Prompt.MaxTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai prompt adapter")
		}
	case "none":
		logger.Info().Msg("prompt suggestions disabled")
	default:
		logger.Fatal().Str("provider", cfg.Prompt.Provider).Msg("unknown prompt provider")
	}

	// ---- Repositories & use cases ----
	assetRepo := pg.NewAssetRepo(pool)
	assetUC := usecase.NewAssetUseCase(assetRepo, blobs, cfg.Storage.SignedURLTTL, logger)
	videoUC := usecase.NewVideoGenerationUseCase(
		gen, blobs, cfg.Storage.SignedURLTTL,
		cfg.Tracker.PollInterval, cfg.Tracker.Timeout, logger)

	var promptUC usecase.PromptUseCase
	if prompter != nil {
		promptUC = usecase.NewPromptUseCase(assetUC, blobs, prompter, logger)
	}

	// ---- Feed subscribers ----
	pool2 := worker.NewPool(4, logger)
	pool2.Start(ctx)
	defer pool2.Stop()

	// Write-through of every named status to the cache, and persistence of
	// generated videos once an operation completes cleanly. Both run off the
	// tracker goroutine via the pool so a slow sink never stalls a publish.
	unsubscribe := videoUC.Subscribe(func(snap usecase.Snapshot) {
		if statusCache != nil && snap.Status != nil && snap.Status.Name != "" {
			st := snap.Status
			_ = pool2.Submit(func(ctx context.Context) error {
				return statusCache.StoreStatus(ctx, st)
			})
		}
		if snap.Terminal() && snap.Err == nil {
			_ = pool2.Submit(func(ctx context.Context) error {
				n, err := assetUC.RecordGeneratedVideos(ctx, snap)
				if err == nil && n > 0 {
					logger.Info().Int("videos", n).Str("operation", snap.Handle).Msg("videos recorded")
				}
				return err
			})
		}
	})
	defer unsubscribe()

	// ---- Auth ----
	var auth *api.AuthManager
	if cfg.Auth.JWTSecret != "" {
		auth = api.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TTL)
	} else {
		logger.Warn().Msg("api auth disabled (no jwt secret)")
	}

	// ---- HTTP server ----
	var statuses repository.StatusStore
	if statusCache != nil {
		statuses = statusCache
	}
	srv := api.NewServer(videoUC, assetUC, promptUC, statuses, auth, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server")
		}
	}()

	// ---- Retention worker ----
	retention := sched.NewRetentionWorker(cfg.Retention.Interval, cfg.Retention.MaxAge, assetRepo, logger)
	go func() { _ = retention.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	videoUC.Clear()
	cancel()
}
