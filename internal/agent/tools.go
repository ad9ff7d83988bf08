package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hmoss/pocketwatch/internal/analysis"
	"github.com/hmoss/pocketwatch/internal/common"
	"github.com/hmoss/pocketwatch/internal/model"
	"github.com/hmoss/pocketwatch/internal/monzo"
)

// BankClient is the subset of the API client the tools need. The
// concrete client satisfies it; tests substitute a fake.
type BankClient interface {
	ListAccounts(ctx context.Context) ([]model.Account, error)
	GetBalance(ctx context.Context, accountID string) (*model.Balance, error)
	ListTransactions(ctx context.Context, accountID string, opts monzo.ListTransactionsOptions) ([]model.Transaction, error)
	GetTransaction(ctx context.Context, transactionID string) (*model.Transaction, error)
	ListPots(ctx context.Context, accountID string) ([]model.Pot, error)
	CreateFeedItem(ctx context.Context, accountID, title, body, imageURL string) error
}

// Tools binds the default tool set to a bank client and analysis
// configuration.
type Tools struct {
	client BankClient
	cfg    analysis.Config
}

// NewTools creates the default tool set.
func NewTools(client BankClient, cfg analysis.Config) *Tools {
	return &Tools{client: client, cfg: cfg}
}

// All returns every tool in the default set.
func (t *Tools) All() []Tool {
	return []Tool{
		{
			Name:        "get_accounts",
			Description: "List the user's bank accounts.",
			Schema:      ObjectSchema(map[string]any{}),
			Handler:     t.getAccounts,
		},
		{
			Name:        "get_balance",
			Description: "Get the current balance for an account.",
			Schema: ObjectSchema(map[string]any{
				"account_id": StringProperty("Account id; defaults to the first open account"),
			}),
			Handler: t.getBalance,
		},
		{
			Name:        "list_transactions",
			Description: "List recent transactions for an account.",
			Schema: ObjectSchema(map[string]any{
				"account_id": StringProperty("Account id; defaults to the first open account"),
				"limit":      IntegerProperty("Maximum number of transactions to return (default: 25)"),
				"since":      StringProperty("Only include transactions after this RFC3339 timestamp"),
			}),
			Handler: t.listTransactions,
		},
		{
			Name:        "get_transaction",
			Description: "Get a single transaction with merchant details.",
			Schema: ObjectSchema(map[string]any{
				"transaction_id": StringProperty("Transaction id"),
			}, "transaction_id"),
			Handler: t.getTransaction,
		},
		{
			Name:        "list_subscriptions",
			Description: "Detect likely recurring subscriptions in recent transaction history, with estimated monthly cost.",
			Schema: ObjectSchema(map[string]any{
				"account_id":    StringProperty("Account id; defaults to the first open account"),
				"lookback_days": IntegerProperty(fmt.Sprintf("Days of history to analyze (default: %d)", analysis.DefaultConfig().LookbackDays)),
			}),
			Handler: t.listSubscriptions,
		},
		{
			Name:        "list_frequent_merchants",
			Description: "Rank the merchants the user pays most often, with total and average spend.",
			Schema: ObjectSchema(map[string]any{
				"account_id":       StringProperty("Account id; defaults to the first open account"),
				"top":              IntegerProperty("Return at most this many merchants (default: all)"),
				"min_transactions": IntegerProperty(fmt.Sprintf("Minimum visits for a merchant to appear (default: %d)", analysis.DefaultConfig().MinTransactions)),
			}),
			Handler: t.listFrequentMerchants,
		},
		{
			Name:        "list_pots",
			Description: "List the savings pots attached to an account.",
			Schema: ObjectSchema(map[string]any{
				"account_id": StringProperty("Account id; defaults to the first open account"),
			}),
			Handler: t.listPots,
		},
		{
			Name:        "create_feed_item",
			Description: "Post a notification card into the user's app feed.",
			Schema: ObjectSchema(map[string]any{
				"account_id": StringProperty("Account id; defaults to the first open account"),
				"title":      StringProperty("Notification title"),
				"body":       StringProperty("Notification body text"),
				"image_url":  StringProperty("Optional image URL for the card"),
			}, "title", "body"),
			Handler: t.createFeedItem,
		},
	}
}

func (t *Tools) getAccounts(ctx context.Context, _ map[string]any) (string, error) {
	accounts, err := t.client.ListAccounts(ctx)
	if err != nil {
		return "", err
	}
	return marshal(map[string]any{"accounts": accounts})
}

func (t *Tools) getBalance(ctx context.Context, input map[string]any) (string, error) {
	accountID, err := t.resolveAccount(ctx, input)
	if err != nil {
		return "", err
	}
	balance, err := t.client.GetBalance(ctx, accountID)
	if err != nil {
		return "", err
	}
	return marshal(map[string]any{
		"account_id": accountID,
		"balance":    balance,
		"formatted":  model.FormatMoney(balance.Balance, balance.Currency),
	})
}

func (t *Tools) listTransactions(ctx context.Context, input map[string]any) (string, error) {
	accountID, err := t.resolveAccount(ctx, input)
	if err != nil {
		return "", err
	}

	limit := intArg(input, "limit", 25)
	txns, err := t.client.ListTransactions(ctx, accountID, monzo.ListTransactionsOptions{
		Limit: limit,
		Since: stringArg(input, "since"),
	})
	if err != nil {
		return "", err
	}
	return marshal(map[string]any{
		"account_id":   accountID,
		"count":        len(txns),
		"transactions": txns,
	})
}

func (t *Tools) getTransaction(ctx context.Context, input map[string]any) (string, error) {
	id := stringArg(input, "transaction_id")
	if id == "" {
		return "", fmt.Errorf("transaction_id is required")
	}
	txn, err := t.client.GetTransaction(ctx, id)
	if err != nil {
		return "", err
	}
	return marshal(map[string]any{"transaction": txn})
}

func (t *Tools) listSubscriptions(ctx context.Context, input map[string]any) (string, error) {
	accountID, err := t.resolveAccount(ctx, input)
	if err != nil {
		return "", err
	}

	cfg := t.cfg
	if days := intArg(input, "lookback_days", 0); days > 0 {
		cfg.LookbackDays = days
	}

	txns, err := t.client.ListTransactions(ctx, accountID, monzo.ListTransactionsOptions{})
	if err != nil {
		return "", err
	}

	report, err := analysis.BuildReport(txns, cfg)
	if err != nil {
		return "", err
	}
	return marshal(map[string]any{
		"account_id":         accountID,
		"subscriptions":      report.Subscriptions,
		"total_monthly_cost": report.TotalMonthlyCost,
		"analyzed":           report.Analyzed,
		"skipped":            report.Skipped,
	})
}

func (t *Tools) listFrequentMerchants(ctx context.Context, input map[string]any) (string, error) {
	accountID, err := t.resolveAccount(ctx, input)
	if err != nil {
		return "", err
	}

	cfg := t.cfg
	if top := intArg(input, "top", 0); top > 0 {
		cfg.TopK = top
	}
	if min := intArg(input, "min_transactions", 0); min > 0 {
		cfg.MinTransactions = min
	}

	txns, err := t.client.ListTransactions(ctx, accountID, monzo.ListTransactionsOptions{})
	if err != nil {
		return "", err
	}

	merchants, err := analysis.RankFrequentMerchants(txns, cfg)
	if err != nil {
		return "", err
	}
	return marshal(map[string]any{
		"account_id": accountID,
		"merchants":  merchants,
	})
}

func (t *Tools) listPots(ctx context.Context, input map[string]any) (string, error) {
	accountID, err := t.resolveAccount(ctx, input)
	if err != nil {
		return "", err
	}
	pots, err := t.client.ListPots(ctx, accountID)
	if err != nil {
		return "", err
	}
	return marshal(map[string]any{
		"account_id": accountID,
		"pots":       pots,
	})
}

func (t *Tools) createFeedItem(ctx context.Context, input map[string]any) (string, error) {
	accountID, err := t.resolveAccount(ctx, input)
	if err != nil {
		return "", err
	}

	title := stringArg(input, "title")
	body := stringArg(input, "body")
	if title == "" || body == "" {
		return "", fmt.Errorf("title and body are required")
	}

	if err := t.client.CreateFeedItem(ctx, accountID, title, body, stringArg(input, "image_url")); err != nil {
		return "", err
	}
	return marshal(map[string]any{"status": "created", "account_id": accountID})
}

// resolveAccount returns the account_id from the input, or the first
// open account when the caller did not name one.
func (t *Tools) resolveAccount(ctx context.Context, input map[string]any) (string, error) {
	if id := stringArg(input, "account_id"); id != "" {
		return id, nil
	}

	accounts, err := t.client.ListAccounts(ctx)
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

func marshal(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(data), nil
}

func stringArg(input map[string]any, key string) string {
	if v, ok := input[key].(string); ok {
		return v
	}
	return ""
}

// intArg reads an integer argument, tolerating the numeric types JSON
// decoding produces.
func intArg(input map[string]any, key string, fallback int) int {
	switch v := input[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return fallback
}
