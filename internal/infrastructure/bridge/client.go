package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultTimeout = 120 * time.Second // bridges can be slow on large snapshots
	accountsPath   = "/accounts"
)

// Client handles communication with the account-aggregation bridge.
// The bridge hands out per-connection access URLs; every call is rooted at
// one of those, there is no shared base URL.
type Client struct {
	httpClient *http.Client
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new bridge client
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Snapshot is the full accounts payload for one connection. Raw preserves
// the body verbatim for audit/replay.
type Snapshot struct {
	Raw      json.RawMessage `json:"-"`
	Accounts []Account       `json:"accounts"`
	Errors   []string        `json:"errors"`
}

// PrimaryOrg returns the first organization data present on any account,
// used as the connection-level aggregate institution. nil when the snapshot
// carries no organization data at all.
func (s *Snapshot) PrimaryOrg() map[string]any {
	for i := range s.Accounts {
		if len(s.Accounts[i].Org) > 0 {
			return s.Accounts[i].Org
		}
	}
	return nil
}

// Account is one bridge-reported account.
type Account struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Currency         string         `json:"currency"`
	Balance          string         `json:"balance"` // bridge sends decimal strings
	AvailableBalance string         `json:"available-balance"`
	BalanceDate      int64          `json:"balance-date"` // unix seconds
	Org              map[string]any `json:"org"`
	Transactions     []Transaction  `json:"transactions"`
}

// GetBalance parses the balance string into a decimal
func (a *Account) GetBalance() (decimal.Decimal, error) {
	if a.Balance == "" {
		return decimal.Zero, nil
	}
	balance, err := decimal.NewFromString(a.Balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse balance %q: %w", a.Balance, err)
	}
	return balance, nil
}

// Transaction is one bridge-reported transaction.
type Transaction struct {
	ID           string `json:"id"`
	Posted       int64  `json:"posted"` // unix seconds, 0 while pending
	Amount       string `json:"amount"`
	Description  string `json:"description"`
	Pending      bool   `json:"pending"`
	TransactedAt int64  `json:"transacted_at"`
}

// GetAmount parses the amount string into a decimal
func (t *Transaction) GetAmount() (decimal.Decimal, error) {
	if t.Amount == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(t.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount %q: %w", t.Amount, err)
	}
	return amount, nil
}

// GetSnapshot fetches the accounts snapshot behind an access URL, including
// pending transactions. The raw body is preserved on the snapshot verbatim.
func (c *Client) GetSnapshot(ctx context.Context, accessURL string, startDate, endDate *time.Time) (*Snapshot, error) {
	if accessURL == "" {
		return nil, fmt.Errorf("access URL is required")
	}

	endpoint, err := url.Parse(accessURL + accountsPath)
	if err != nil {
		return nil, fmt.Errorf("invalid access URL: %w", err)
	}

	query := endpoint.Query()
	query.Set("pending", "1")
	if startDate != nil {
		query.Set("start-date", strconv.FormatInt(startDate.Unix(), 10))
	}
	if endDate != nil {
		query.Set("end-date", strconv.FormatInt(endDate.Unix(), 10))
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bridge returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var snapshot Snapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	snapshot.Raw = body

	return &snapshot, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
