package prospect

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/prospectcrm/prospect/pkg/drive"
	"github.com/prospectcrm/prospect/pkg/models"
	"github.com/prospectcrm/prospect/pkg/store"
	"github.com/prospectcrm/prospect/pkg/store/memory"
	"github.com/prospectcrm/prospect/pkg/store/postgres"
	"github.com/prospectcrm/prospect/pkg/store/surrealdb"
)

// Config holds application configuration, populated by Parse from flags and
// environment variables.
type Config struct {
	// Store selects the persistence backend: "surrealdb", "postgres" or
	// "memory".
	Store string

	PostgresDSN   string
	SurrealDBURL  string
	SurrealDBNS   string
	SurrealDBDB   string
	SurrealDBUser string
	SurrealDBPass string

	// Azure app registration used for the OneDrive integration. Empty
	// values disable remote file features for every user.
	AzureClientID     string
	AzureClientSecret string

	// GraphBaseURL overrides the Microsoft Graph endpoint. Empty means the
	// production endpoint; tests point it at a stub server.
	GraphBaseURL string

	ServerPort string
}

// App holds the application state shared by all HTTP handlers.
type App struct {
	store    store.Store
	config   *Config
	sessions *sessionStore
	logger   zerolog.Logger
}

// New creates a new application instance connected to the configured store.
func New(config *Config) (*App, error) {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	var appStore store.Store
	var err error

	switch config.Store {
	case "surrealdb":
		appStore, err = surrealdb.NewSurrealStore(
			config.SurrealDBURL,
			config.SurrealDBNS,
			config.SurrealDBDB,
			config.SurrealDBUser,
			config.SurrealDBPass,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
		}
		logger.Info().Str("url", config.SurrealDBURL).Msg("connected to SurrealDB")
	case "postgres":
		appStore, err = postgres.NewPostgresStore(config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		logger.Info().Msg("connected to PostgreSQL")
	case "memory":
		appStore = memory.NewStore()
		logger.Info().Msg("using in-memory store")
	default:
		return nil, fmt.Errorf("unknown store backend: %q", config.Store)
	}

	return &App{
		store:    appStore,
		config:   config,
		sessions: newSessionStore(),
		logger:   logger,
	}, nil
}

// Close closes the application and its resources.
func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Store returns the underlying store (useful for testing).
func (a *App) Store() store.Store {
	return a.store
}

// driveFor builds a OneDrive client authenticated as the given user, or nil
// when the user has not linked a Microsoft account. Refreshed tokens are
// persisted back onto the user record so the next request starts from the
// current pair.
func (a *App) driveFor(user *models.User) *drive.Client {
	if !user.HasMicrosoftIntegration() {
		return nil
	}
	tokens := drive.NewMicrosoftTokenSource(
		a.config.AzureClientID,
		a.config.AzureClientSecret,
		user.MicrosoftAccessToken,
		user.MicrosoftRefreshToken,
	)
	tokens.Persist = func(ctx context.Context, access, refresh string) error {
		user.MicrosoftAccessToken = access
		user.MicrosoftRefreshToken = refresh
		return a.store.UpdateUser(ctx, user)
	}
	var opts []drive.Option
	if a.config.GraphBaseURL != "" {
		opts = append(opts, drive.WithBaseURL(a.config.GraphBaseURL))
	}
	return drive.NewClient(tokens, opts...)
}

// getEnv retrieves an environment variable value with a fallback default.
// Empty values are treated the same as unset ones.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
