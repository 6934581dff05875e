package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/GitLars0/budget-forecast/internal/cli"
	"github.com/GitLars0/budget-forecast/internal/common"
	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/GitLars0/budget-forecast/internal/ofx"
	"github.com/GitLars0/budget-forecast/internal/storage"
	"github.com/spf13/cobra"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import transactions from OFX or QFX (Quicken) files exported from your bank.

Each statement's account is created on first import. Transactions already
imported for the same account are skipped, so overlapping exports are safe.

Examples:
  # Import a card statement and file its purchases under Groceries
  forecast import-ofx --user 1 --category Groceries ~/Downloads/card_jan_2024.qfx

  # Import every export in a directory
  forecast import-ofx --user 1 ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().Int64("user", 0, "user id that owns the accounts (required)")
	cmd.Flags().String("category", "", "category name to assign imported expenses to")
	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

type importSummary struct {
	Files      int
	Statements int
	Parsed     int
	Imported   int
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetInt64("user")
	categoryName, _ := cmd.Flags().GetString("category")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	files, err := expandPatterns(args)
	if err != nil {
		return err
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx, settings)
	if err != nil {
		return err
	}
	defer closeStore(store)

	if _, err := store.GetUser(ctx, userID); err != nil {
		return common.NewUserError(fmt.Sprintf("user %d does not exist", userID), err)
	}

	var categoryID *int64
	if categoryName != "" {
		cat, err := store.CategoryByName(ctx, userID, categoryName)
		if err != nil {
			return common.NewUserError(fmt.Sprintf("category %q does not exist", categoryName), err)
		}
		categoryID = &cat.ID
	}

	summary, err := importFiles(ctx, store, userID, categoryID, files, dryRun)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("%d of %d transactions imported from %d statements in %d files",
		summary.Imported, summary.Parsed, summary.Statements, summary.Files)
	if dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Dry run: "+msg))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(msg))
	return nil
}

// expandPatterns resolves globs; a pattern with no match is kept when it
// names an existing file.
func expandPatterns(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}

// importFiles parses every file and stores its statements. Unreadable or
// malformed files are logged and skipped.
func importFiles(ctx context.Context, store *storage.SQLiteStorage, userID int64, categoryID *int64, files []string, dryRun bool) (importSummary, error) {
	parser := ofx.NewParser()
	var summary importSummary

	for _, path := range files {
		statements, err := parseFile(ctx, parser, path)
		if err != nil {
			slog.Error("Failed to import OFX file", "file", path, "error", err)
			continue
		}
		summary.Files++

		for _, stmt := range statements {
			summary.Statements++
			summary.Parsed += len(stmt.Entries)
			if dryRun || len(stmt.Entries) == 0 {
				continue
			}

			account := model.Account{UserID: userID, Name: stmt.AccountName(), Type: stmt.AccountType}
			if err := store.FindOrCreateAccount(ctx, &account); err != nil {
				return summary, err
			}

			txns := stmt.Transactions(userID, account.ID, categoryID)
			if len(txns) == 0 {
				continue
			}
			n, err := store.ImportTransactions(ctx, txns)
			if err != nil {
				return summary, err
			}
			summary.Imported += n

			slog.Info("Imported statement",
				"file", filepath.Base(path),
				"account", account.Name,
				"parsed", len(stmt.Entries),
				"imported", n)
		}
	}

	return summary, nil
}

func parseFile(ctx context.Context, parser *ofx.Parser, path string) ([]ofx.Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return parser.Parse(ctx, f)
}
