package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/danmiller22/botfarm/internal/api/http"
	"github.com/danmiller22/botfarm/internal/application/dedup"
	"github.com/danmiller22/botfarm/internal/application/dialog"
	"github.com/danmiller22/botfarm/internal/application/finalize"
	"github.com/danmiller22/botfarm/internal/application/outbound"
	"github.com/danmiller22/botfarm/internal/config"
	"github.com/danmiller22/botfarm/internal/domain/conversation"
	"github.com/danmiller22/botfarm/internal/infrastructure/google"
	"github.com/danmiller22/botfarm/internal/infrastructure/memory"
	"github.com/danmiller22/botfarm/internal/infrastructure/postgres"
	"github.com/danmiller22/botfarm/internal/infrastructure/telegram"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// repositories
	var states conversation.StateRepository
	var locks conversation.LockRepository
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db error: %v", err)
		}
		defer pool.Close()
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			log.Fatalf("migration error: %v", err)
		}
		states = postgres.NewStateRepository(pool)
		locks = postgres.NewLockRepository(pool)
	} else {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory state (single instance only)")
		states = memory.NewStateRepository()
		locks = memory.NewLockRepository()
	}

	// collaborators
	tg, err := telegram.New(cfg.TelegramToken, logger)
	if err != nil {
		log.Fatalf("telegram error: %v", err)
	}
	logger.Info().Str("bot", tg.Username()).Msg("telegram connected")

	if cfg.GoogleServiceAccountJSON == "" || cfg.SheetID == "" || cfg.DriveFolderID == "" {
		log.Fatalf("GOOGLE_SA_JSON, SHEET_ID and DRIVE_FOLDER_ID are required")
	}
	gClient, err := google.NewHTTPClient(ctx, []byte(cfg.GoogleServiceAccountJSON))
	if err != nil {
		log.Fatalf("google auth error: %v", err)
	}
	drive, err := google.NewDrive(ctx, gClient, cfg.DriveFolderID)
	if err != nil {
		log.Fatalf("drive error: %v", err)
	}
	sheet, err := google.NewSheets(ctx, gClient, cfg.SheetID, cfg.SheetRange)
	if err != nil {
		log.Fatalf("sheets error: %v", err)
	}

	// services
	gate, err := dedup.New(cfg.DedupCacheSize)
	if err != nil {
		log.Fatalf("dedup error: %v", err)
	}
	dispatcher := outbound.NewDispatcher(tg, cfg.QueueSize, logger)
	dispatcher.Start(ctx)

	finalizer := finalize.NewService(tg, tg, drive, sheet, states, logger)

	dialogSvc := dialog.NewService(
		&dialog.Engine{DashboardURL: cfg.DashboardURL},
		states,
		locks,
		gate,
		dispatcher,
		outbound.NewDebouncer(cfg.DebounceWindow),
		finalizer,
		cfg.AllowedChatIDs,
		cfg.LockTTL,
		cfg.LockRetryDelay,
		logger,
	)
	processor := dialog.NewProcessor(dialogSvc, cfg.QueueSize, cfg.WorkerCount, logger)
	processor.Start(ctx)

	// API server
	apiServer := httpapi.NewServer(processor, cfg.WebhookSecret, logger)
	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
}
