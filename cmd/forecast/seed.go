package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/GitLars0/budget-forecast/internal/cli"
	"github.com/GitLars0/budget-forecast/internal/seed"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate demo households with budgets and spending",
		Long: `Populate the database with synthetic users so predictions, patterns
and peer insights have something to work with. Users cycle through
frugal, balanced and spender archetypes; the data ends in the current month.`,
		RunE: runSeed,
	}

	cmd.Flags().Int("users", 12, "number of users to create")
	cmd.Flags().Int("months", 12, "months of history per user")
	cmd.Flags().Uint64("seed", 42, "random seed")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string) error {
	users, _ := cmd.Flags().GetInt("users")
	months, _ := cmd.Flags().GetInt("months")
	rngSeed, _ := cmd.Flags().GetUint64("seed")

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	store, err := initStorage(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer closeStore(store)

	gen := seed.New(store, seed.Options{
		End:    time.Now().UTC(),
		Users:  users,
		Months: months,
		Seed:   rngSeed,
	})

	out := cmd.OutOrStdout()
	interrupts := cli.NewInterruptHandler(out, "Seeding")
	ctx, stop := interrupts.HandleInterrupts(cmd.Context())
	defer stop()

	bar := progressbar.NewOptions(gen.Options().Users,
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Seeding users...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(out); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)

	summary, err := gen.Run(ctx, func() {
		if err := bar.Add(1); err != nil {
			slog.Debug("Failed to update progress bar", "error", err)
		}
	})
	if err != nil {
		if interrupts.WasInterrupted() {
			slog.Info("Seeding stopped early", "users", summary.Users)
			return nil
		}
		return fmt.Errorf("seeding failed: %w", err)
	}

	fmt.Fprintln(out, cli.RenderBox(cli.ChartIcon+" Seeded", fmt.Sprintf(
		"%d users\n%d budgets\n%d transactions\n%d split lines",
		summary.Users, summary.Budgets, summary.Transactions, summary.Splits)))
	return nil
}
