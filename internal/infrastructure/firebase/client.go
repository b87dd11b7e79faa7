package firebase

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCM rejects multicast batches above this size.
const fcmBatchLimit = 500

// TokenDeactivator is called when FCM reports a token as dead so the
// repository can stop targeting it.
type TokenDeactivator func(ctx context.Context, token string) error

// Client sends push notifications through Firebase Cloud Messaging.
type Client struct {
	msgClient   *messaging.Client
	deactivator TokenDeactivator
}

// NewClient initializes the FCM client from a service account credentials file.
func NewClient(ctx context.Context, credentialsFile string, deactivator TokenDeactivator) (*Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize messaging client: %w", err)
	}

	return &Client{msgClient: msgClient, deactivator: deactivator}, nil
}

// Send delivers a notification to a single device token.
func (c *Client) Send(ctx context.Context, token string, title, body string, data map[string]string) error {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := c.msgClient.Send(ctx, msg); err != nil {
		if messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err) {
			c.deactivate(ctx, token)
		}
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// SendMulticast delivers a notification to many device tokens, batching
// to stay under the FCM multicast limit. Dead tokens are deactivated,
// not treated as send failures.
func (c *Client) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}

	for _, batch := range chunkTokens(tokens, fcmBatchLimit) {
		msg := &messaging.MulticastMessage{
			Tokens: batch,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
		}

		resp, err := c.msgClient.SendEachForMulticast(ctx, msg)
		if err != nil {
			return fmt.Errorf("failed to send multicast notification: %w", err)
		}
		c.handleMulticastFailures(ctx, batch, resp)
	}
	return nil
}

func (c *Client) handleMulticastFailures(ctx context.Context, tokens []string, resp *messaging.BatchResponse) {
	if resp.FailureCount == 0 {
		return
	}
	for i, result := range resp.Responses {
		if result.Success {
			continue
		}
		if messaging.IsUnregistered(result.Error) || messaging.IsInvalidArgument(result.Error) {
			c.deactivate(ctx, tokens[i])
		} else {
			log.Printf("Warning: FCM delivery failed for token %s: %v", tokens[i], result.Error)
		}
	}
}

func (c *Client) deactivate(ctx context.Context, token string) {
	if c.deactivator == nil {
		return
	}
	if err := c.deactivator(ctx, token); err != nil {
		log.Printf("Warning: failed to deactivate device token: %v", err)
	}
}

func chunkTokens(tokens []string, size int) [][]string {
	var chunks [][]string
	for size < len(tokens) {
		tokens, chunks = tokens[size:], append(chunks, tokens[:size])
	}
	return append(chunks, tokens)
}
