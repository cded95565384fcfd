package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KotFed0t/portfolio_analyzer_bot/config"
	"github.com/KotFed0t/portfolio_analyzer_bot/data"
	"github.com/KotFed0t/portfolio_analyzer_bot/data/cache"
	"github.com/KotFed0t/portfolio_analyzer_bot/data/repository/postgres"
	"github.com/KotFed0t/portfolio_analyzer_bot/data/session"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/externalApi/moexApi"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/externalApi/yahooApi"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/importer"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/reportGenerator/xslsxGenerator"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/scheduler"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/service/analyzerService"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/tgbot"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/transport/telegram"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(cfg, pgClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)
	redisSession := session.NewRedisSession(redisClient, cfg)

	reportGenerator := xslsxGenerator.New()

	googleCloudStorage := googleDriveApi.New(ctx, cfg)

	analyzerSrv := analyzerService.New(
		cfg,
		pgRepo,
		redisCache,
		newQuoteProvider(cfg),
		importer.New(cfg),
		reportGenerator,
		googleCloudStorage,
	)

	sched := scheduler.New()
	sched.NewIntervalJob("warm quote cache", analyzerSrv.WarmQuoteCache, cfg.Jobs.WarmQuoteCacheInterval, true)
	sched.NewIntervalJob("delete old reports", analyzerSrv.DeleteOldReports, cfg.Jobs.DeleteOldReportsInterval, false)
	sched.Start()
	defer sched.Stop()

	tgController := telegram.NewController(cfg, analyzerSrv, redisSession)

	tgBot := tgbot.New(cfg, tgController, redisSession)
	tgBot.Start()
	defer tgBot.Stop()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt
}

func newQuoteProvider(cfg *config.Config) analyzerService.QuoteProvider {
	switch cfg.API.QuoteProvider {
	case "moex":
		return moexApi.New(cfg)
	case "yahoo":
		return yahooApi.New(cfg)
	default:
		slog.Error("unknown quote provider", slog.String("provider", cfg.API.QuoteProvider))
		panic("unknown quote provider " + cfg.API.QuoteProvider)
	}
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
