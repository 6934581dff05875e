package main

import (
	"context"
	"log/slog"

	"github.com/GitLars0/budget-forecast/internal/cli"
	"github.com/GitLars0/budget-forecast/internal/common"
	"github.com/GitLars0/budget-forecast/internal/engine"
	"github.com/GitLars0/budget-forecast/internal/storage"
	"github.com/spf13/cobra"
)

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Show behavior and seasonality per category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUserEngine(cmd, func(ctx context.Context, eng *engine.PredictionEngine, store *storage.SQLiteStorage, userID int64, months int, output string) error {
				analysis, err := eng.AnalyzePatterns(ctx, userID, months)
				if err != nil {
					return common.InternalError(err)
				}
				if output == cli.FormatJSON {
					return cli.WriteJSON(cmd.OutOrStdout(), analysis)
				}
				names, err := categoryNames(ctx, store, userID)
				if err != nil {
					return err
				}
				return cli.RenderPatterns(cmd.OutOrStdout(), analysis, names)
			})
		},
	}
	addUserFlags(cmd)
	return cmd
}

func insightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Compare a user with the cohort of similar users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUserEngine(cmd, func(ctx context.Context, eng *engine.PredictionEngine, store *storage.SQLiteStorage, userID int64, months int, output string) error {
				insights, err := eng.UserInsights(ctx, userID, months)
				if err != nil {
					return common.InternalError(err)
				}
				if output == cli.FormatJSON {
					return cli.WriteJSON(cmd.OutOrStdout(), insights)
				}
				names, err := categoryNames(ctx, store, userID)
				if err != nil {
					return err
				}
				return cli.RenderInsights(cmd.OutOrStdout(), insights, names)
			})
		},
	}
	addUserFlags(cmd)
	return cmd
}

func addUserFlags(cmd *cobra.Command) {
	cmd.Flags().Int64("user", 0, "user id (required)")
	cmd.Flags().Int("months", 0, "lookback window in months (default: prediction.historical_months)")
	cmd.Flags().StringP("output", "o", cli.FormatTable, "output format (table, json)")
	_ = cmd.MarkFlagRequired("user")
}

type userEngineFunc func(ctx context.Context, eng *engine.PredictionEngine, store *storage.SQLiteStorage, userID int64, months int, output string) error

// withUserEngine resolves the shared user flags, opens storage and hands an
// engine to fn.
func withUserEngine(cmd *cobra.Command, fn userEngineFunc) error {
	userID, _ := cmd.Flags().GetInt64("user")
	months, _ := cmd.Flags().GetInt("months")
	output, _ := cmd.Flags().GetString("output")

	if err := cli.ValidateFormat(output); err != nil {
		return err
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if months == 0 {
		months = settings.HistoricalMonths
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx, settings)
	if err != nil {
		return err
	}
	defer closeStore(store)

	return fn(ctx, newEngine(store, settings), store, userID, months, output)
}

func closeStore(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}
