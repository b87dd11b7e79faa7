package sync

import (
	"context"
	"log"

	"ledgerlink/internal/domain/connection"
)

// Listener receives the completion notification for a fully-finished sync
// pipeline. Listeners are best-effort collaborators (dashboard refresh,
// pattern detection); their failures must never fail the sync.
type Listener interface {
	Name() string
	SyncCompleted(ctx context.Context, conn *connection.Connection) error
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc struct {
	ListenerName string
	Fn           func(ctx context.Context, conn *connection.Connection) error
}

func (l ListenerFunc) Name() string { return l.ListenerName }

func (l ListenerFunc) SyncCompleted(ctx context.Context, conn *connection.Connection) error {
	return l.Fn(ctx, conn)
}

// CompleteEvent fans the completion notification out to registered
// listeners. Each listener runs through runAndReport: errors and panics are
// logged with context and swallowed.
type CompleteEvent struct {
	listeners []Listener
}

// NewCompleteEvent creates a completion event with the given listeners
func NewCompleteEvent(listeners ...Listener) *CompleteEvent {
	return &CompleteEvent{listeners: listeners}
}

// Register adds a listener. Not safe for concurrent use with Broadcast;
// register everything during wiring.
func (e *CompleteEvent) Register(l Listener) {
	e.listeners = append(e.listeners, l)
}

// Broadcast notifies every listener that the connection's sync pipeline
// completed. It never returns an error.
func (e *CompleteEvent) Broadcast(ctx context.Context, conn *connection.Connection) {
	for _, l := range e.listeners {
		runAndReport(l.Name(), func() error {
			return l.SyncCompleted(ctx, conn)
		})
	}
}

// runAndReport runs a best-effort side effect and logs any failure instead
// of propagating it. Used uniformly at every fire-and-forget call site.
func runAndReport(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Sync complete listener %q panicked: %v", name, r)
		}
	}()

	if err := fn(); err != nil {
		log.Printf("Sync complete listener %q failed: %v", name, err)
	}
}
