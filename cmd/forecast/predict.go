package main

import (
	"fmt"
	"time"

	"github.com/GitLars0/budget-forecast/internal/cli"
	"github.com/GitLars0/budget-forecast/internal/common"
	"github.com/GitLars0/budget-forecast/internal/service"
	"github.com/spf13/cobra"
)

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict next month's budget per category",
		Long: `Predict a budget for every category the user has planned in the
lookback window. The target month defaults to the month after today.`,
		RunE: runPredict,
	}

	cmd.Flags().Int64("user", 0, "user id to predict for (required)")
	cmd.Flags().Int("month", 0, "target month 1-12 (default: next month)")
	cmd.Flags().Int("year", 0, "target year (default: next month's year)")
	cmd.Flags().Int("months", 0, "lookback window in months (default: prediction.historical_months)")
	cmd.Flags().StringP("output", "o", cli.FormatTable, "output format (table, json)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runPredict(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetInt64("user")
	month, _ := cmd.Flags().GetInt("month")
	year, _ := cmd.Flags().GetInt("year")
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
	defMonth, defYear := nextMonth(time.Now())
	if month == 0 {
		month = defMonth
	}
	if year == 0 {
		year = defYear
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx, settings)
	if err != nil {
		return err
	}
	defer closeStore(store)

	report, err := newEngine(store, settings).Predict(ctx, service.PredictRequest{
		UserID:           userID,
		TargetMonth:      month,
		TargetYear:       year,
		HistoricalMonths: months,
	})
	if err != nil {
		return common.InternalError(err)
	}

	if output == cli.FormatJSON {
		return cli.WriteJSON(cmd.OutOrStdout(), report)
	}
	if err := cli.RenderPredictions(cmd.OutOrStdout(), report); err != nil {
		return fmt.Errorf("failed to render predictions: %w", err)
	}
	return nil
}
