package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/escalopa/arud-bot/internal/adapter/arudapi"
	"github.com/escalopa/arud-bot/internal/adapter/i18n"
	"github.com/escalopa/arud-bot/internal/adapter/store"
	"github.com/escalopa/arud-bot/internal/application"
	"github.com/escalopa/arud-bot/internal/config"
	"github.com/escalopa/arud-bot/internal/domain"
	"github.com/escalopa/arud-bot/internal/logging"
)

type commandContext struct {
	configFlag *string
	apiFlag    *string
	langFlag   *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, apiFlag, langFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		apiFlag:    apiFlag,
		langFlag:   langFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := config.DefaultPath()
		if c.configFlag != nil && strings.TrimSpace(*c.configFlag) != "" {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.apiFlag != nil && strings.TrimSpace(*c.apiFlag) != "" {
			cfg.ArudAPI.BaseURL = strings.TrimRight(strings.TrimSpace(*c.apiFlag), "/")
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// language returns the --lang flag, the configured default, or English
func (c *commandContext) language() domain.Language {
	if c.langFlag != nil {
		if lang, ok := domain.ParseLanguage(strings.TrimSpace(*c.langFlag)); ok {
			return lang
		}
	}
	if c.config != nil {
		if lang, ok := domain.ParseLanguage(c.config.App.DefaultLanguage); ok {
			return lang
		}
	}
	return domain.LangEnglish
}

// withService wires the service for one command and releases it afterwards.
// Errors returned by fn are translated into user-facing messages.
func (c *commandContext) withService(fn func(*application.AnalysisService, *zap.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sessionStore, closer, err := store.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	service := application.NewAnalysisService(arudapi.NewClient(cfg.ArudAPI.BaseURL, logger), sessionStore, application.Options{
		SessionKey:      cfg.Session.Key,
		Normalize:       cfg.Analysis.NormalizeUnicode,
		DefaultLanguage: c.language(),
		Logger:          logger,
	})
	defer service.Close()

	return c.userError(fn(service, logger))
}

// userError replaces domain errors with their localized message
func (c *commandContext) userError(err error) error {
	if err == nil || !isDomainError(err) {
		return err
	}
	tr, trErr := i18n.NewI18n(c.config.App.LocalesDir)
	if trErr != nil {
		return err
	}
	return errors.New(i18n.ErrorMessage(tr, c.language(), err))
}

func isDomainError(err error) bool {
	var (
		tooMany      *domain.TooManyVersesError
		transportErr *domain.TransportError
		apiErr       *domain.APIError
	)
	return errors.Is(err, domain.ErrEmptyInput) ||
		errors.Is(err, domain.ErrAnalysisInProgress) ||
		errors.As(err, &tooMany) ||
		errors.As(err, &transportErr) ||
		errors.As(err, &apiErr)
}

// lockAnalysis takes the process lock that keeps one analysis in flight per session
func (c *commandContext) lockAnalysis() (*flock.Flock, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	dbPath, err := cfg.SQLitePath()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	lock := flock.New(filepath.Join(dir, "analyze.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrAnalysisInProgress
	}
	return lock, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
