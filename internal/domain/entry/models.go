package entry

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is a dated transaction row on a local account. Pending entries are
// provisional; a separate dedup pass may later reconcile a pending entry
// into its posted counterpart. Excluded entries are user-suppressed and
// never participate in counts.
type Entry struct {
	ID        string          `json:"id"`
	AccountID string          `json:"accountId"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Date      time.Time       `json:"date"`
	Pending   bool            `json:"pending"`
	Excluded  bool            `json:"excluded"`
	Category  *string         `json:"category,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
