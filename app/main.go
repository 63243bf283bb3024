package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feedgram/feedgram/app/api"
	"github.com/feedgram/feedgram/app/bot"
	"github.com/feedgram/feedgram/app/cfg"
	"github.com/feedgram/feedgram/app/channels"
	"github.com/feedgram/feedgram/app/content"
	"github.com/feedgram/feedgram/app/database"
	"github.com/feedgram/feedgram/app/ingest"
	"github.com/feedgram/feedgram/app/llm"
	"github.com/feedgram/feedgram/app/notify"
	"github.com/feedgram/feedgram/app/source"
	"github.com/feedgram/feedgram/app/tasks"
	"github.com/feedgram/feedgram/app/telegram"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting Feedgram server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	channelRepo := database.NewChannelRepository(db)
	itemRepo := database.NewItemRepository(db)
	accountRepo := database.NewAccountConfigRepository(db)

	httpClient := &http.Client{
		Timeout: time.Duration(appCfg.FetchTimeout) * time.Second,
	}

	adapters := source.NewRegistry(httpClient, appCfg.UserAgent)
	fetcher := content.NewFetcher(httpClient, appCfg.UserAgent)
	tgClient := telegram.NewClient(httpClient, appCfg.UserAgent)
	notifier := notify.NewNotifier(tgClient, accountRepo)

	engine := ingest.NewEngine(adapters, fetcher, channelRepo, itemRepo, notifier,
		appCfg.PollLimit, appCfg.BackfillLimit)

	scheduler := tasks.NewScheduler(channelRepo, engine,
		time.Duration(appCfg.SchedulerInterval)*time.Second,
		time.Duration(appCfg.StartupDelay)*time.Second,
		time.Duration(appCfg.FetchTimeout)*time.Second,
		appCfg.WorkerCount)

	slog.Info("Loading channel definitions", "dir", appCfg.ChannelsDir)
	loader := channels.NewLoader(appCfg.ChannelsDir, channelRepo)
	created, err := loader.Run()
	if err != nil {
		slog.Error("Failed to load channel definitions", "error", err)
		os.Exit(1)
	}
	for _, ch := range created {
		task := tasks.NewBackfillChannelTask(ch, engine, time.Duration(appCfg.FetchTimeout)*time.Second)
		if err := scheduler.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue backfill", "channel", ch.Name, "error", err)
		}
	}
	if len(created) > 0 {
		slog.Info("New channels registered, backfill enqueued", "count", len(created))
	}

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount,
		"interval", time.Duration(appCfg.SchedulerInterval)*time.Second)
	scheduler.Start()
	defer scheduler.Stop()

	botHandler := bot.NewHandler(tgClient, channelRepo, itemRepo, accountRepo,
		engine, llm.NewGeminiClient(), appCfg.BotToken, appCfg.GeminiModel)

	if appCfg.PublicHost != "" && appCfg.BotToken != "" {
		webhookURL := fmt.Sprintf("https://%s/telegram/webhook", appCfg.PublicHost)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := tgClient.SetWebhook(ctx, appCfg.BotToken, webhookURL, appCfg.WebhookSecret); err != nil {
			slog.Error("Failed to register Telegram webhook", "url", webhookURL, "error", err)
		} else {
			slog.Info("Telegram webhook registered", "url", webhookURL)
		}
		cancel()
	}

	apiHandler := api.NewHandler(channelRepo, itemRepo, scheduler, botHandler, appCfg.WebhookSecret)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
