package domain

import (
	"context"
)

// AnalyzerPort defines the interface for interacting with the prosody analysis service
type AnalyzerPort interface {
	// Analyze submits non-empty verses and returns the analysis
	Analyze(ctx context.Context, verses []string) (*Analysis, error)

	// BahrInfo retrieves metadata for a meter
	BahrInfo(ctx context.Context, name string) (*BahrInfo, error)

	// Validate checks whether a single verse is acceptable input
	Validate(ctx context.Context, verse string) (bool, error)

	// Status reports whether the service is running
	Status(ctx context.Context) (*ServiceStatus, error)
}

// Store defines the interface for key-value persistence of session state.
// Writes overwrite; Get returns ErrNotFound for missing keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// I18nPort defines the interface for internationalization
type I18nPort interface {
	// Get retrieves a translated message
	Get(lang Language, key string, args ...interface{}) string

	// ExampleTitle retrieves the localized title of a sample poem
	ExampleTitle(lang Language, ex Example) string
}

// BotPort defines the interface for the bot adapter
type BotPort interface {
	// Start starts the bot
	Start(ctx context.Context) error

	// Stop stops the bot
	Stop() error
}
