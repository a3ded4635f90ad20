// Package moneybird is the accounting-source collaborator: a thin read-only
// client for the endpoints the exporter needs (financial accounts, the
// ledger-account hierarchy, per-period cash-flow reports, and mutation
// counts). It fetches raw records; all reconciliation happens in the engine.
package moneybird

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const DefaultBaseURL = "https://moneybird.com/api/v2"

// APIError is a failed upstream request. It aborts the affected account's
// pipeline and propagates unchanged; nothing here is retried.
type APIError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 400 {
		body = body[:400]
	}
	return fmt.Sprintf("moneybird %s %s -> %d %s", e.Method, e.URL, e.Status, body)
}

type Client struct {
	httpClient       *http.Client
	baseURL          string
	token            string
	administrationID string
}

func NewClient(baseURL, token, administrationID string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient:       httpClient,
		baseURL:          baseURL,
		token:            token,
		administrationID: administrationID,
	}
}

// FinancialAccount is one bank or payment account of the administration.
type FinancialAccount struct {
	ID        json.Number `json:"id"`
	Type      string      `json:"type"`
	Name      string      `json:"name"`
	Currency  string      `json:"currency"`
	Provider  string      `json:"provider"`
	Active    bool        `json:"active"`
	UpdatedAt string      `json:"updated_at"`
}

// LedgerAccount is one node of the ledger-account hierarchy.
type LedgerAccount struct {
	ID          json.Number `json:"id"`
	Name        string      `json:"name"`
	ParentID    json.Number `json:"parent_id"`
	AccountType string      `json:"account_type"`
}

// CashFlowReport is the per-period cash-flow report for one account.
// The received/paid maps are keyed by ledger-account id; their sign
// convention is the source's, not ours.
type CashFlowReport struct {
	OpeningBalance              string            `json:"opening_balance"`
	ClosingBalance              string            `json:"closing_balance"`
	CashReceivedByLedgerAccount map[string]string `json:"cash_received_by_ledger_account"`
	CashPaidByLedgerAccount     map[string]string `json:"cash_paid_by_ledger_account"`
}

// FinancialAccounts lists the administration's financial accounts.
func (c *Client) FinancialAccounts(ctx context.Context) ([]FinancialAccount, error) {
	var accounts []FinancialAccount
	if err := c.get(ctx, "/financial_accounts.json", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// LedgerAccounts fetches the full ledger-account snapshot.
func (c *Client) LedgerAccounts(ctx context.Context) ([]LedgerAccount, error) {
	var accounts []LedgerAccount
	if err := c.get(ctx, "/ledger_accounts.json", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// CashFlow fetches the cash-flow report for one account and period token.
func (c *Client) CashFlow(ctx context.Context, financialAccountID, period string) (CashFlowReport, error) {
	q := url.Values{}
	q.Set("period", period)
	q.Set("financial_account_id", financialAccountID)

	var report CashFlowReport
	if err := c.get(ctx, "/reports/cash_flow.json", q, &report); err != nil {
		return CashFlowReport{}, err
	}
	return report, nil
}

// MutationCount returns the number of financial mutations recorded for one
// account and period, via the synchronization listing (ids and versions
// only, so the count is cheap regardless of mutation size).
func (c *Client) MutationCount(ctx context.Context, financialAccountID, period string) (int, error) {
	filter := fmt.Sprintf("period:%s,state:all,financial_account_id:%s", period, financialAccountID)
	q := url.Values{}
	q.Set("filter", filter)

	var raw json.RawMessage
	if err := c.get(ctx, "/financial_mutations/synchronization.json", q, &raw); err != nil {
		return 0, err
	}

	var idVersions []struct {
		ID      json.Number `json:"id"`
		Version int64       `json:"version"`
	}
	if err := json.Unmarshal(raw, &idVersions); err != nil {
		// A non-array response means no mutations, not a failure.
		return 0, nil
	}
	return len(idVersions), nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := fmt.Sprintf("%s/%s%s", c.baseURL, c.administrationID, path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("moneybird GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{Method: http.MethodGet, URL: u, Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", u, err)
	}
	return nil
}
