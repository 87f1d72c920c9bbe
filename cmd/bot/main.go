package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/escalopa/arud-bot/internal/adapter/arudapi"
	"github.com/escalopa/arud-bot/internal/adapter/i18n"
	"github.com/escalopa/arud-bot/internal/adapter/store"
	"github.com/escalopa/arud-bot/internal/adapter/telegram"
	"github.com/escalopa/arud-bot/internal/application"
	"github.com/escalopa/arud-bot/internal/config"
	"github.com/escalopa/arud-bot/internal/domain"
	"github.com/escalopa/arud-bot/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return err
	}
	if err := cfg.ValidateBot(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.String("api", cfg.ArudAPI.BaseURL),
		zap.String("session_driver", cfg.Session.Driver),
	)

	// Initialize i18n
	i18nService, err := i18n.NewI18n(cfg.App.LocalesDir)
	if err != nil {
		return err
	}

	// Initialize session store
	sessionStore, closer, err := store.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	// Initialize analysis API client
	client := arudapi.NewClient(cfg.ArudAPI.BaseURL, logger)

	// Initialize application service
	service := application.NewAnalysisService(client, sessionStore, application.Options{
		SessionKey:      cfg.Session.Key,
		Normalize:       cfg.Analysis.NormalizeUnicode,
		DefaultLanguage: domain.Language(cfg.App.DefaultLanguage),
		Logger:          logger,
	})
	defer service.Close()

	// Initialize Telegram bot
	bot, err := telegram.NewBot(cfg.Telegram.Token, service, i18nService, logger)
	if err != nil {
		return err
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start bot in a goroutine
	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting bot")
		if err := bot.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal, stopping bot", zap.String("signal", sig.String()))
		cancel()
		if err := bot.Stop(); err != nil {
			logger.Error("stop bot failed", zap.Error(err))
		}
	case err := <-errChan:
		logger.Error("bot error", zap.Error(err))
		return err
	}

	logger.Info("bot stopped")
	return nil
}
