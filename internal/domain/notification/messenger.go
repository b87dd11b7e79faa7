package notification

import "context"

// Messenger delivers sync push notifications to registered devices.
// Implemented by the Firebase FCM client in the infrastructure layer; data
// carries the notification type and connection id for client-side routing.
type Messenger interface {
	Send(ctx context.Context, token string, title, body string, data map[string]string) error
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}
