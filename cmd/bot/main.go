package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/filedrop-bot/internal/api/http"
	"github.com/spec-kit/filedrop-bot/internal/api/http/handlers"
	"github.com/spec-kit/filedrop-bot/internal/backend"
	"github.com/spec-kit/filedrop-bot/internal/bot"
	"github.com/spec-kit/filedrop-bot/internal/cache"
	"github.com/spec-kit/filedrop-bot/internal/config"
	"github.com/spec-kit/filedrop-bot/internal/events"
	"github.com/spec-kit/filedrop-bot/internal/observability"
	"github.com/spec-kit/filedrop-bot/internal/persistence"
	"github.com/spec-kit/filedrop-bot/internal/service"
	"github.com/spec-kit/filedrop-bot/internal/session"
	"github.com/spec-kit/filedrop-bot/internal/telegram"
	"github.com/spec-kit/filedrop-bot/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	provider := telegram.NewClient(cfg.Bot, logger)
	backendClient := backend.New(cfg.Backend, logger)

	var dedup cache.Deduplicator
	if cfg.Redis.Addr != "" {
		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		dedup = cache.NewRedisDeduplicator(redis.Client, cache.DefaultDedupTTL, logger)
	} else {
		dedup = cache.NewDeduplicator(cfg.Cache.DedupCapacity)
	}

	tokens := cache.NewLRUTokenStore(cfg.Cache.TokenCacheCapacity)
	sessions := session.NewResolver(backendClient, tokens, logger)
	orchestrator := service.NewOrchestrator(backendClient, provider, logger)

	dispatcher := events.NewInMemoryDispatcher()
	auditService := service.NewAuditService(dispatcher, logger, metrics)
	worker.StartAuditWorker(auditService)

	router := bot.NewRouter(bot.RouterDependencies{
		Dedup:      dedup,
		Sessions:   sessions,
		Backend:    backendClient,
		Uploader:   orchestrator,
		Messenger:  provider,
		Dispatcher: dispatcher,
		Metrics:    metrics,
	}, cfg.Backend.LegacyUploadEnabled, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger)

	webhookPath := telegram.WebhookPath(cfg.Bot.Token)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version),
		Webhook:     handlers.NewWebhookHandler(router, logger),
		WebhookPath: webhookPath,
	})

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStartup()

	if err := provider.SetMyCommands(startupCtx, bot.BotCommands()); err != nil {
		logger.Warn("failed to register command menu", zap.Error(err))
	}

	if cfg.App.PublicDomain != "" {
		if err := provider.SetWebhook(startupCtx, "https://"+cfg.App.PublicDomain+webhookPath); err != nil {
			logger.Fatal("failed to register webhook", zap.Error(err))
		}
	} else {
		logger.Warn("PUBLIC_DOMAIN not set, skipping webhook registration")
	}

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := provider.DeleteWebhook(shutdownCtx); err != nil {
		logger.Warn("failed to deregister webhook", zap.Error(err))
	}

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
