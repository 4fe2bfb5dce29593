// Package ynab fetches budget transactions from the YNAB v1 API as an
// alternative to parsing a register export file.
package ynab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budget-reconciler/internal/models"
	"budget-reconciler/pkg/errors"
	"budget-reconciler/pkg/logger"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.ynab.com/v1"

const defaultTimeout = 30 * time.Second

// Config holds the settings for an API client.
type Config struct {
	// Token is the personal access token used as a bearer credential.
	Token string

	// BaseURL overrides the API endpoint, used in tests.
	BaseURL string

	// Timeout bounds each request when the caller's context carries no
	// deadline of its own.
	Timeout time.Duration
}

// DefaultConfig returns a config with production defaults and no token.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Timeout: defaultTimeout,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return errors.ConfigurationError(
			errors.CodeMissingConfig,
			"token",
			nil,
			nil,
		).WithSuggestion("Provide a personal access token, see https://api.ynab.com/#personal-access-tokens")
	}
	if c.BaseURL == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "base_url", nil, nil)
	}
	return nil
}

// ReadTokenFile reads a personal access token from a file, trimming
// surrounding whitespace.
func ReadTokenFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.FileError(errors.CodeFileNotFound, path, err).
				WithSuggestion("Create the token file with your personal access token as its only content")
		}
		return "", errors.FileError(errors.CodeFilePermission, path, err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", errors.ValidationError(errors.CodeMissingField, "token", "", nil).
			WithContext("file", path)
	}
	return token, nil
}

// Client talks to the YNAB v1 API.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates an API client.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "ynab_config", nil, nil)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.GetGlobalLogger().WithComponent("ynab-client"),
	}, nil
}

// Budget is a budget summary as returned by the API.
type Budget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Account is an account summary as returned by the API.
type Account struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Closed bool   `json:"closed"`
}

// Transaction is a transaction as returned by the API. Amounts are in
// milliunits, a thousandth of the currency unit.
type Transaction struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Amount    int64  `json:"amount"`
	PayeeName string `json:"payee_name"`
	Memo      string `json:"memo"`
	Deleted   bool   `json:"deleted"`
}

// Budgets lists the budgets visible to the token.
func (c *Client) Budgets(ctx context.Context) ([]Budget, error) {
	var reply struct {
		Data struct {
			Budgets []Budget `json:"budgets"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/budgets", nil, &reply); err != nil {
		return nil, err
	}
	return reply.Data.Budgets, nil
}

// ResolveBudget finds a budget by exact name.
func (c *Client) ResolveBudget(ctx context.Context, name string) (*Budget, error) {
	budgets, err := c.Budgets(ctx)
	if err != nil {
		return nil, err
	}
	for i := range budgets {
		if budgets[i].Name == name {
			return &budgets[i], nil
		}
	}

	available := make([]string, len(budgets))
	for i, b := range budgets {
		available[i] = b.Name
	}
	return nil, errors.NetworkError(errors.CodeNotFound, "/budgets", nil).
		WithContext("budget_name", name).
		WithSuggestion(fmt.Sprintf("Available budgets: %s", strings.Join(available, ", ")))
}

// Accounts lists the accounts of a budget.
func (c *Client) Accounts(ctx context.Context, budgetID string) ([]Account, error) {
	var reply struct {
		Data struct {
			Accounts []Account `json:"accounts"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/budgets/%s/accounts", url.PathEscape(budgetID))
	if err := c.get(ctx, path, nil, &reply); err != nil {
		return nil, err
	}
	return reply.Data.Accounts, nil
}

// ResolveAccount finds an account by exact name within a budget.
func (c *Client) ResolveAccount(ctx context.Context, budgetID, name string) (*Account, error) {
	accounts, err := c.Accounts(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].Name == name {
			return &accounts[i], nil
		}
	}

	available := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if !a.Closed {
			available = append(available, a.Name)
		}
	}
	return nil, errors.NetworkError(errors.CodeNotFound, "/accounts", nil).
		WithContext("account_name", name).
		WithSuggestion(fmt.Sprintf("Available accounts: %s", strings.Join(available, ", ")))
}

// Transactions fetches an account's transactions on or after sinceDate.
func (c *Client) Transactions(ctx context.Context, budgetID, accountID string, sinceDate time.Time) ([]Transaction, error) {
	var reply struct {
		Data struct {
			Transactions []Transaction `json:"transactions"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/budgets/%s/accounts/%s/transactions",
		url.PathEscape(budgetID), url.PathEscape(accountID))
	query := url.Values{"since_date": {sinceDate.Format("2006-01-02")}}
	if err := c.get(ctx, path, query, &reply); err != nil {
		return nil, err
	}
	return reply.Data.Transactions, nil
}

// FetchRecords resolves a budget and account by name and returns the
// account's transactions since the filter date as normalized records.
func (c *Client) FetchRecords(ctx context.Context, budgetName, accountName string, sinceDate time.Time) ([]*models.TransactionRecord, error) {
	budget, err := c.ResolveBudget(ctx, budgetName)
	if err != nil {
		return nil, err
	}
	account, err := c.ResolveAccount(ctx, budget.ID, accountName)
	if err != nil {
		return nil, err
	}

	transactions, err := c.Transactions(ctx, budget.ID, account.ID, sinceDate)
	if err != nil {
		return nil, err
	}

	records := make([]*models.TransactionRecord, 0, len(transactions))
	for _, tx := range transactions {
		if tx.Deleted {
			continue
		}
		record, err := convertTransaction(tx)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	c.logger.WithFields(logger.Fields{
		"budget":  budgetName,
		"account": accountName,
		"since":   sinceDate.Format("2006-01-02"),
		"records": len(records),
	}).Info("Transactions fetched from API")

	return records, nil
}

// convertTransaction turns an API transaction into a record. API amounts are
// milliunits, so 1000 milliunits make one currency unit.
func convertTransaction(tx Transaction) (*models.TransactionRecord, error) {
	date, err := models.ParseDate(tx.Date)
	if err != nil {
		return nil, errors.ValidationError(errors.CodeInvalidDate, "date", tx.Date, err).
			WithContext("transaction_id", tx.ID)
	}
	amount := decimal.New(tx.Amount, -3)
	return models.NewTransactionRecord(date, tx.PayeeName, amount, tx.Memo), nil
}

// get issues a GET request and decodes the JSON reply into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.NetworkError(errors.CodeRequestFailed, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Accept", "application/json")

	c.logger.WithField("path", path).Debug("Issuing API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NetworkError(errors.CodeRequestFailed, path, err).
			WithSuggestion("Check network connectivity and the API endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		rerr := errors.NetworkError(errors.CodeUnexpectedReply, path, nil).
			WithContext("status", resp.StatusCode).
			WithContext("body", strings.TrimSpace(string(body)))
		if resp.StatusCode == http.StatusUnauthorized {
			rerr = rerr.WithSuggestion("Check that the access token is valid")
		}
		return rerr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NetworkError(errors.CodeUnexpectedReply, path, err).
			WithSuggestion("The API reply could not be decoded as JSON")
	}
	return nil
}
