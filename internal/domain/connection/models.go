package connection

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Connection statuses
const (
	StatusActive      = "active"
	StatusNeedsUpdate = "needs_update"
)

// Domain errors
var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrInvalidStatus      = errors.New("invalid connection status")
)

// Connection represents one bridge credential linking a user to a financial
// institution. It owns the bridge-reported linked accounts and the sync runs
// executed against it. The access URL is sensitive and stored encrypted; the
// repository hands it back still encrypted.
type Connection struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name"`
	AccessURL             string          `json:"-"`
	Status                string          `json:"status"`
	RawPayload            json.RawMessage `json:"-"`
	InstitutionID         string          `json:"institutionId,omitempty"`
	InstitutionName       string          `json:"institutionName,omitempty"`
	InstitutionDomain     string          `json:"institutionDomain,omitempty"`
	InstitutionURL        string          `json:"institutionUrl,omitempty"`
	RawInstitutionPayload json.RawMessage `json:"-"`
	LastSyncedAt          *time.Time      `json:"lastSyncedAt,omitempty"`
	ScheduledForDeletion  bool            `json:"scheduledForDeletion"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

// NeedsUpdate reports whether the bridge has flagged this connection's
// credential as requiring user action.
func (c *Connection) NeedsUpdate() bool {
	return c.Status == StatusNeedsUpdate
}

// InstitutionDisplayName picks the best available institution label:
// resolved name, then domain, then the connection's own name.
func (c *Connection) InstitutionDisplayName() string {
	if c.InstitutionName != "" {
		return c.InstitutionName
	}
	if c.InstitutionDomain != "" {
		return c.InstitutionDomain
	}
	return c.Name
}

// LinkedAccount is an account the bridge reports under a connection. It may
// carry its own institution data, which can name a different institution
// than the connection aggregate. Once the user links it, it resolves to
// exactly one local account; until then it is "unlinked" and excluded from
// reconciliation and staleness counts.
type LinkedAccount struct {
	ID              string          `json:"id"`
	ConnectionID    string          `json:"connectionId"`
	ExternalID      string          `json:"externalId"`
	Name            string          `json:"name"`
	Currency        string          `json:"currency"`
	CurrentBalance  decimal.Decimal `json:"currentBalance"`
	AccountID       *string         `json:"accountId,omitempty"`
	LegacyAccountID *string         `json:"legacyAccountId,omitempty"`
	OrgData         map[string]any  `json:"orgData,omitempty"`
	Institution     Institution     `json:"institution"`
	RawPayload      json.RawMessage `json:"-"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// CurrentAccountID resolves which local account representation is
// authoritative. A new-style account wins over a migrated legacy one when
// both exist. The second return is false when the linked account has not
// been set up yet.
func (la *LinkedAccount) CurrentAccountID() (string, bool) {
	if la.AccountID != nil && *la.AccountID != "" {
		return *la.AccountID, true
	}
	if la.LegacyAccountID != nil && *la.LegacyAccountID != "" {
		return *la.LegacyAccountID, true
	}
	return "", false
}

// Linked reports whether the account resolves to a local account.
func (la *LinkedAccount) Linked() bool {
	_, ok := la.CurrentAccountID()
	return ok
}
