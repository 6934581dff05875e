package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GitLars0/budget-forecast/internal/config"
	"github.com/GitLars0/budget-forecast/internal/engine"
	"github.com/GitLars0/budget-forecast/internal/storage"
	"github.com/spf13/viper"
)

// configureEnv maps FORECAST_DATABASE_PATH style variables onto nested keys.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("FORECAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context, settings config.Settings) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(settings.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func newEngine(store *storage.SQLiteStorage, settings config.Settings) *engine.PredictionEngine {
	return engine.NewWithConfig(store, engine.Config{
		PeerWindowMonths: settings.PeerWindowMonths,
		UserClusters:     settings.UserClusters,
		Timeout:          settings.Timeout,
	})
}

// nextMonth returns the calendar month after now.
func nextMonth(now time.Time) (month, year int) {
	next := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return int(next.Month()), next.Year()
}

// categoryNames maps a user's category ids to their names for display.
func categoryNames(ctx context.Context, store *storage.SQLiteStorage, userID int64) (map[int64]string, error) {
	categories, err := store.GetCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names, nil
}

func loadSettings() (config.Settings, error) {
	return config.Load(viper.GetViper())
}
