package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/yigit/storetrainer/internal/apiclient"
	"github.com/yigit/storetrainer/internal/pkg/logger"
	"github.com/yigit/storetrainer/internal/session"
)

var (
	apiFlag       string
	sessionDBFlag string
	redisFlag     string
	verboseFlag   bool
	rootCmd       = &cobra.Command{
		Use:           "coachctl",
		Short:         "Terminal client for the store trainer API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "storetrainer", "session.db")
}

// app bundles what every command needs
type app struct {
	client *apiclient.Client
	store  *session.Store
	log    zerolog.Logger
}

// openApp connects the session store to its storage and the API gateway
func openApp(ctx context.Context) (*app, error) {
	level := logger.WarnLevel
	if verboseFlag {
		level = logger.DebugLevel
	}
	logger.Configure(logger.Config{Level: level, Pretty: true, Output: os.Stderr, Service: "coachctl"})
	log := logger.Get()

	var (
		storage session.Storage
		err     error
	)
	if redisFlag != "" {
		storage, err = session.OpenRedis(ctx, session.RedisOptions{Addr: redisFlag, Password: os.Getenv("STORETRAINER_REDIS_PASSWORD")})
		if err != nil {
			return nil, err
		}
	} else {
		storage, err = session.OpenSQLite(ctx, sessionDBFlag)
		if err != nil {
			log.Warn().Err(err).Str("path", sessionDBFlag).Msg("Session database unavailable, session will not outlive this command")
			storage = session.NewMemoryStorage()
		}
	}

	client := apiclient.New(apiFlag, 60*time.Second)
	store := session.NewStore(storage, client, log)
	if err := store.Init(ctx); err != nil {
		_ = store.Dispose()
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return &app{client: client, store: store, log: log}, nil
}

// withApp runs fn with an opened app and always releases the storage
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.store.Dispose(); err != nil {
			a.log.Debug().Err(err).Msg("Failed to close session storage")
		}
	}()
	return fn(ctx, a)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", envOr("STORETRAINER_API", "http://localhost:8080/api/v1"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&sessionDBFlag, "session-db", envOr("STORETRAINER_SESSION_DB", defaultSessionPath()), "Local session database")
	rootCmd.PersistentFlags().StringVar(&redisFlag, "redis", os.Getenv("STORETRAINER_REDIS_ADDR"), "Keep the session in Redis at this address instead of the local database")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(newLoginCmd(), newLogoutCmd(), newWhoamiCmd(), newProfileCmd(), newEventsCmd(), newPracticeCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
