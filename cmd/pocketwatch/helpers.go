package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hmoss/pocketwatch/internal/analysis"
	"github.com/hmoss/pocketwatch/internal/common"
	"github.com/hmoss/pocketwatch/internal/config"
	"github.com/hmoss/pocketwatch/internal/model"
	"github.com/hmoss/pocketwatch/internal/monzo"
	"github.com/hmoss/pocketwatch/internal/storage"
)

// newClient builds the API client from config.
func newClient() (*monzo.Client, error) {
	return monzo.NewClient(monzo.Config{
		BaseURL:      viper.GetString("monzo.base_url"),
		ClientID:     viper.GetString("monzo.client_id"),
		ClientSecret: viper.GetString("monzo.client_secret"),
		AccessToken:  viper.GetString("monzo.access_token"),
		RefreshToken: viper.GetString("monzo.refresh_token"),
	})
}

// initStore opens the transaction cache with proper path expansion and
// runs migrations.
func initStore(ctx context.Context) (*storage.SQLiteStore, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/pocketwatch/pocketwatch.db"
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// resolveAccount returns the account id from the flag, or the first
// open account when none was given.
func resolveAccount(ctx context.Context, client *monzo.Client, accountID string) (string, error) {
	if accountID != "" {
		return accountID, nil
	}

	accounts, err := client.ListAccounts(ctx)
	if err != nil {
		return "", err
	}
	for _, account := range accounts {
		if !account.Closed {
			return account.ID, nil
		}
	}
	return "", fmt.Errorf("no open accounts: %w", common.ErrNotFound)
}

// fetchTransactions pulls transactions from the API and writes them
// through to the cache so later offline runs can reuse them. Cache
// write failures are logged, not fatal.
func fetchTransactions(ctx context.Context, client *monzo.Client, accountID, since string) ([]model.Transaction, error) {
	txns, err := client.ListTransactions(ctx, accountID, monzo.ListTransactionsOptions{Since: since})
	if err != nil {
		return nil, err
	}

	if len(txns) == 0 {
		return txns, nil
	}

	store, storeErr := initStore(ctx)
	if storeErr != nil {
		common.LogError(storeErr, "Failed to open transaction cache", nil)
		return txns, nil
	}
	defer func() { _ = store.Close() }()

	if saveErr := store.SaveTransactions(ctx, txns); saveErr != nil {
		common.LogError(saveErr, "Failed to cache transactions", common.Fields{"count": len(txns)})
		return txns, nil
	}
	if lastID := txns[len(txns)-1].ID; lastID != "" {
		if cursorErr := store.SetSyncCursor(ctx, accountID, lastID); cursorErr != nil {
			common.LogError(cursorErr, "Failed to record sync cursor", common.Fields{"account_id": accountID})
		}
	}

	return txns, nil
}

// analysisConfig maps analyze flags onto the core config, starting from
// defaults so unset flags keep their documented values.
func analysisConfig(cmd *cobra.Command) analysis.Config {
	cfg := analysis.DefaultConfig()

	if cmd.Flags().Changed("lookback-days") {
		cfg.LookbackDays, _ = cmd.Flags().GetInt("lookback-days")
	}
	if cmd.Flags().Changed("min-occurrences") {
		cfg.MinOccurrences, _ = cmd.Flags().GetInt("min-occurrences")
	}
	if cmd.Flags().Changed("min-transactions") {
		cfg.MinTransactions, _ = cmd.Flags().GetInt("min-transactions")
	}
	if cmd.Flags().Changed("amount-tolerance") {
		cfg.AmountTolerancePct, _ = cmd.Flags().GetFloat64("amount-tolerance")
	}
	if cmd.Flags().Changed("top") {
		cfg.TopK, _ = cmd.Flags().GetInt("top")
	}

	return cfg
}
