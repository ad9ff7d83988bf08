package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/hmoss/pocketwatch/internal/cli"
	"github.com/hmoss/pocketwatch/internal/model"
	"github.com/hmoss/pocketwatch/internal/ofx"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transactions from OFX/QFX statement files",
		Long: `Import transactions from OFX or QFX (Quicken) statement files
exported from another bank into the local cache, so they can be
analyzed alongside synced transactions.

Examples:
  # Import a single statement
  pocketwatch import ~/Downloads/statement_jan.qfx

  # Import everything in a directory
  pocketwatch import ~/Downloads/*.ofx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	ctx := cmd.Context()

	// Expand globs and collect all files
	var allFiles []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				allFiles = append(allFiles, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
		} else {
			allFiles = append(allFiles, matches...)
		}
	}

	if len(allFiles) == 0 {
		return fmt.Errorf("no files found to import")
	}

	bar := progressbar.NewOptions(len(allFiles),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Importing statements..."),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)

	importer := ofx.NewImporter()
	var allTransactions []model.Transaction
	seen := make(map[string]bool)
	fileResults := make(map[string]int)

	for _, filePath := range allFiles {
		transactions, err := importFile(ctx, importer, filePath)
		if err != nil {
			slog.Error("Failed to import statement", "file", filePath, "error", err)
			_ = bar.Add(1)
			continue
		}

		added := 0
		for _, txn := range transactions {
			if txn.ID == "" || seen[txn.ID] {
				continue
			}
			seen[txn.ID] = true
			allTransactions = append(allTransactions, txn)
			added++
		}
		fileResults[filepath.Base(filePath)] = added
		_ = bar.Add(1)
	}

	if len(allTransactions) == 0 {
		fmt.Println(cli.FormatWarning("No transactions found in any file"))
		return nil
	}

	fmt.Println(cli.FormatTitle("Import summary"))
	for file, count := range fileResults {
		fmt.Printf("  - %s: %d transactions\n", file, count)
	}

	if dryRun {
		fmt.Println(cli.FormatInfo("Dry run complete, nothing saved"))
		return nil
	}

	store, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveTransactions(ctx, allTransactions); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Saved %d transactions to the cache", len(allTransactions))))
	return nil
}

func importFile(ctx context.Context, importer *ofx.Importer, filePath string) ([]model.Transaction, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return importer.Import(ctx, f)
}
