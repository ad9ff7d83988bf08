package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hmoss/pocketwatch/internal/analysis"
	"github.com/hmoss/pocketwatch/internal/cli"
	"github.com/hmoss/pocketwatch/internal/model"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze transaction history",
	}

	cmd.AddCommand(analyzeSubscriptionsCmd())
	cmd.AddCommand(analyzeMerchantsCmd())

	return cmd
}

func addAnalyzeFlags(cmd *cobra.Command) {
	defaults := analysis.DefaultConfig()
	cmd.Flags().StringP("account", "a", "", "Account id (default: first open account)")
	cmd.Flags().Int("lookback-days", defaults.LookbackDays, "Days of history to analyze")
	cmd.Flags().Int("min-occurrences", defaults.MinOccurrences, "Charges needed before a merchant can look recurring")
	cmd.Flags().Int("min-transactions", defaults.MinTransactions, "Visits needed before a merchant counts as frequent")
	cmd.Flags().Float64("amount-tolerance", defaults.AmountTolerancePct, "Allowed relative variation in recurring amounts")
	cmd.Flags().Int("top", defaults.TopK, "Return at most this many merchants (0 = all)")
	cmd.Flags().Bool("offline", false, "Analyze cached transactions instead of fetching")
	cmd.Flags().Bool("json", false, "Output the raw report as JSON")
}

func analyzeSubscriptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "Detect recurring subscriptions and their monthly cost",
		RunE:  runAnalyzeSubscriptions,
	}
	addAnalyzeFlags(cmd)
	return cmd
}

func analyzeMerchantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merchants",
		Short: "Rank the merchants you pay most often",
		RunE:  runAnalyzeMerchants,
	}
	addAnalyzeFlags(cmd)
	return cmd
}

func runAnalyzeSubscriptions(cmd *cobra.Command, _ []string) error {
	txns, cfg, err := analyzeInputs(cmd)
	if err != nil {
		return err
	}

	report, err := analysis.BuildReport(txns, cfg)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(report)
	}

	fmt.Println(cli.FormatTitle(cli.RepeatIcon + " Subscriptions"))
	fmt.Println(analysis.FormatSubscriptions(report.Subscriptions, report.Skipped))
	return nil
}

func runAnalyzeMerchants(cmd *cobra.Command, _ []string) error {
	txns, cfg, err := analyzeInputs(cmd)
	if err != nil {
		return err
	}

	report, err := analysis.BuildReport(txns, cfg)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(report)
	}

	fmt.Println(cli.FormatTitle(cli.ChartIcon + " Frequent merchants"))
	fmt.Println(analysis.FormatFrequentMerchants(report.FrequentMerchants, report.Skipped))
	return nil
}

// analyzeInputs gathers the transaction snapshot (API or cache) and the
// core config for an analyze subcommand.
func analyzeInputs(cmd *cobra.Command) ([]model.Transaction, analysis.Config, error) {
	cfg := analysisConfig(cmd)
	if err := cfg.Validate(); err != nil {
		return nil, cfg, err
	}

	accountFlag, _ := cmd.Flags().GetString("account")
	offline, _ := cmd.Flags().GetBool("offline")
	ctx := cmd.Context()

	if offline {
		txns, err := cachedTransactions(ctx, accountFlag)
		return txns, cfg, err
	}

	client, err := newClient()
	if err != nil {
		return nil, cfg, err
	}
	accountID, err := resolveAccount(ctx, client, accountFlag)
	if err != nil {
		return nil, cfg, err
	}

	txns, err := fetchTransactions(ctx, client, accountID, "")
	return txns, cfg, err
}

// cachedTransactions reads the snapshot from the local cache. Offline
// mode cannot discover accounts, so the flag is required.
func cachedTransactions(ctx context.Context, accountID string) ([]model.Transaction, error) {
	if accountID == "" {
		return nil, fmt.Errorf("--account is required with --offline")
	}

	store, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	txns, err := store.GetTransactions(ctx, accountID, "")
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return nil, fmt.Errorf("no cached transactions for %s; run without --offline or import a statement first", accountID)
	}
	return txns, nil
}

func writeJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
