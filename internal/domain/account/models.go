package account

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// Allowed classifications for local accounts
	classifications = map[string]struct{}{
		"asset":     {},
		"liability": {},
	}
)

// Domain errors
var (
	ErrAccountNotFound       = errors.New("account not found")
	ErrInvalidClassification = errors.New("invalid account classification")
	ErrInvalidInput          = errors.New("invalid input")
)

// Account is a local ledger account. Bridge-reported accounts resolve to one
// of these once the user links them; an account may also exist standalone.
type Account struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	AccountType    string          `json:"accountType"`
	Subtype        string          `json:"subtype"`
	Currency       string          `json:"currency"`
	Balance        decimal.Decimal `json:"balance"`
	Classification string          `json:"classification"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ValidClassification reports whether c is an allowed classification.
func ValidClassification(c string) bool {
	_, ok := classifications[c]
	return ok
}

// UpdateParams holds the fields a bridge sync may refresh on an account.
type UpdateParams struct {
	Name    *string
	Balance *decimal.Decimal
}
