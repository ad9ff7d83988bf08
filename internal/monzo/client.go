// Package monzo implements a read-only client for the Monzo API.
//
// The client owns transport-level concerns the analysis core explicitly
// does not: bearer auth with refresh, pagination, and rate-limit
// backoff. The only write-shaped operation is CreateFeedItem, which
// posts a notification into the user's app feed.
package monzo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/hmoss/pocketwatch/internal/common"
	"github.com/hmoss/pocketwatch/internal/model"
)

// DefaultBaseURL is the production Monzo API endpoint.
const DefaultBaseURL = "https://api.monzo.com"

// pageSize is the API's maximum transactions-per-page.
const pageSize = 100

// Config carries the credentials and endpoint for a Client.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
	HTTPClient   *http.Client
}

// Client is an authenticated Monzo API client. It is safe for
// concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	oauth      *oauth2.Config
	retryOpts  common.RetryOptions

	mu    sync.Mutex
	token *oauth2.Token
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("monzo api error (%d): %s", e.StatusCode, e.Message)
}

// NewClient creates a client from the given credentials.
func NewClient(cfg Config) (*Client, error) {
	if cfg.AccessToken == "" && cfg.RefreshToken == "" {
		return nil, common.NewUserError("no Monzo credentials configured; run 'pocketwatch auth' or set MONZO_ACCESS_TOKEN", common.ErrUnauthenticated)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  baseURL + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		retryOpts: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     10 * time.Second,
		},
		token: &oauth2.Token{
			AccessToken:  cfg.AccessToken,
			RefreshToken: cfg.RefreshToken,
		},
	}, nil
}

// accessToken returns the current bearer token.
func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token.AccessToken
}

// refreshToken exchanges the refresh token for a fresh access token.
func (c *Client) refreshToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.RefreshToken == "" || c.oauth.ClientID == "" || c.oauth.ClientSecret == "" {
		return common.NewUserError("access token expired and no refresh credentials configured", common.ErrUnauthenticated)
	}

	// Route the token exchange through our HTTP client so tests and
	// custom transports apply to it too.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	stale := &oauth2.Token{
		AccessToken:  c.token.AccessToken,
		RefreshToken: c.token.RefreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	}
	fresh, err := c.oauth.TokenSource(ctx, stale).Token()
	if err != nil {
		return fmt.Errorf("failed to refresh access token: %w", err)
	}

	c.token = fresh
	slog.Debug("Refreshed Monzo access token")
	return nil
}

// get performs an authenticated GET and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

// postForm performs an authenticated form POST and decodes the response.
func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, form, out)
}

func (c *Client) do(ctx context.Context, method, path string, params, form url.Values, out any) error {
	operation := func() error {
		return c.doOnce(ctx, method, path, params, form, out, true)
	}
	return common.WithRetry(ctx, operation, c.retryOpts)
}

func (c *Client) doOnce(ctx context.Context, method, path string, params, form url.Values, out any, allowRefresh bool) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken())
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized && allowRefresh:
		if refreshErr := c.refreshToken(ctx); refreshErr != nil {
			return refreshErr
		}
		return c.doOnce(ctx, method, path, params, form, out, false)
	case resp.StatusCode == http.StatusTooManyRequests:
		return &common.RetryableError{Err: fmt.Errorf("%w: %s", common.ErrRateLimit, path), Retryable: true}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return c.apiError(resp)
	}

	if out == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	var payload struct {
		Message string `json:"message"`
	}
	message := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		message = payload.Message
	}

	return &APIError{StatusCode: resp.StatusCode, Message: message}
}

// ListAccounts returns all accounts for the authenticated user.
func (c *Client) ListAccounts(ctx context.Context) ([]model.Account, error) {
	var resp struct {
		Accounts []model.Account `json:"accounts"`
	}
	if err := c.get(ctx, "/accounts", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return resp.Accounts, nil
}

// GetBalance returns the balance for an account.
func (c *Client) GetBalance(ctx context.Context, accountID string) (*model.Balance, error) {
	params := url.Values{"account_id": {accountID}}
	var balance model.Balance
	if err := c.get(ctx, "/balance", params, &balance); err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return &balance, nil
}

// ListTransactionsOptions bounds a transaction listing.
type ListTransactionsOptions struct {
	// Limit caps the total number of transactions fetched across pages;
	// zero fetches everything the API will serve.
	Limit int
	// Since is an RFC3339 timestamp or a transaction id to start after.
	Since string
	// Before is an exclusive RFC3339 upper bound.
	Before string
}

// ListTransactions fetches transactions for an account, following the
// API's since-cursor pagination and expanding merchant details. Records
// that fail to decode are returned with only their id so downstream
// analysis can count them as skipped.
func (c *Client) ListTransactions(ctx context.Context, accountID string, opts ListTransactionsOptions) ([]model.Transaction, error) {
	var all []model.Transaction
	since := opts.Since

	for {
		limit := pageSize
		if opts.Limit > 0 && opts.Limit-len(all) < limit {
			limit = opts.Limit - len(all)
		}
		if limit <= 0 {
			break
		}

		params := url.Values{
			"account_id": {accountID},
			"limit":      {strconv.Itoa(limit)},
			"expand[]":   {"merchant"},
		}
		if since != "" {
			params.Set("since", since)
		}
		if opts.Before != "" {
			params.Set("before", opts.Before)
		}

		var resp struct {
			Transactions []json.RawMessage `json:"transactions"`
		}
		if err := c.get(ctx, "/transactions", params, &resp); err != nil {
			return nil, fmt.Errorf("failed to list transactions: %w", err)
		}

		page := decodeTransactions(resp.Transactions, accountID)
		all = append(all, page...)

		if len(resp.Transactions) < limit {
			break
		}
		cursor := lastID(page)
		if cursor == "" {
			break
		}
		since = cursor
	}

	return all, nil
}

// GetTransaction fetches one transaction with merchant details expanded.
func (c *Client) GetTransaction(ctx context.Context, transactionID string) (*model.Transaction, error) {
	params := url.Values{"expand[]": {"merchant"}}
	var resp struct {
		Transaction model.Transaction `json:"transaction"`
	}
	if err := c.get(ctx, "/transactions/"+transactionID, params, &resp); err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &resp.Transaction, nil
}

// ListPots returns the pots attached to an account.
func (c *Client) ListPots(ctx context.Context, accountID string) ([]model.Pot, error) {
	params := url.Values{"current_account_id": {accountID}}
	var resp struct {
		Pots []model.Pot `json:"pots"`
	}
	if err := c.get(ctx, "/pots", params, &resp); err != nil {
		return nil, fmt.Errorf("failed to list pots: %w", err)
	}
	return resp.Pots, nil
}

// CreateFeedItem posts a basic notification into the user's app feed.
func (c *Client) CreateFeedItem(ctx context.Context, accountID, title, body, imageURL string) error {
	if imageURL == "" {
		imageURL = "https://monzo.com/favicon.ico"
	}
	form := url.Values{
		"account_id":        {accountID},
		"type":              {"basic"},
		"params[title]":     {title},
		"params[body]":      {body},
		"params[image_url]": {imageURL},
	}
	if err := c.postForm(ctx, "/feed", form, nil); err != nil {
		return fmt.Errorf("failed to create feed item: %w", err)
	}
	return nil
}

// decodeTransactions decodes records one at a time so a single corrupt
// row degrades to a skippable placeholder instead of failing the page.
func decodeTransactions(raw []json.RawMessage, accountID string) []model.Transaction {
	txns := make([]model.Transaction, 0, len(raw))
	for _, msg := range raw {
		var txn model.Transaction
		if err := json.Unmarshal(msg, &txn); err != nil {
			var stub struct {
				ID string `json:"id"`
			}
			_ = json.Unmarshal(msg, &stub)
			slog.Warn("Skipping malformed transaction record", "id", stub.ID, "error", err)
			txns = append(txns, model.Transaction{ID: stub.ID, AccountID: accountID})
			continue
		}
		if txn.AccountID == "" {
			txn.AccountID = accountID
		}
		txns = append(txns, txn)
	}
	return txns
}

func lastID(txns []model.Transaction) string {
	for i := len(txns) - 1; i >= 0; i-- {
		if txns[i].ID != "" {
			return txns[i].ID
		}
	}
	return ""
}
