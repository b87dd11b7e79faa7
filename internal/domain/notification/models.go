package notification

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrInvalidToken = errors.New("device token is required")
)

// DeviceToken is a registered push target for sync notifications.
type DeviceToken struct {
	Token     string    `json:"token"`
	Platform  string    `json:"platform"` // "ios", "android", "web"
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
