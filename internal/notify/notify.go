// Package notify is the fire-and-forget dispatch boundary. Delivery
// internals (push/email providers) live outside this service; the booking
// state machine only records per-token results into the delivery log and
// never blocks on them.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/venuehub/venue-booking/internal/logger"
)

// Message is a notification payload addressed to a set of device tokens.
type Message struct {
	Tokens  []string
	Title   string
	Body    string
	Payload map[string]string
}

// TokenResult is the per-token delivery outcome, used only for logging.
type TokenResult struct {
	Token   string
	Success bool
	Error   string
}

// Dispatcher sends a notification. Implementations must not block the
// caller beyond their own transport timeout.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg *Message) []TokenResult
}

// UserDirectory resolves whether and where to notify a user. It is consulted
// only for notification decisions, never by inventory or payment logic.
type UserDirectory interface {
	// DeviceTokens returns the user's registered device tokens; an empty
	// slice means no notification is sent.
	DeviceTokens(ctx context.Context, userID string) ([]string, error)
}

// LogDispatcher is the default dispatcher: it records the message instead of
// delivering it.
type LogDispatcher struct {
	log *logger.Logger
}

// NewLogDispatcher creates a new LogDispatcher
func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{log: logger.Get().Named("notify")}
}

// Dispatch logs the message and reports success for every token.
func (d *LogDispatcher) Dispatch(ctx context.Context, msg *Message) []TokenResult {
	d.log.Info("notification dispatched",
		zap.Int("tokens", len(msg.Tokens)),
		zap.String("title", msg.Title),
	)
	results := make([]TokenResult, len(msg.Tokens))
	for i, token := range msg.Tokens {
		results[i] = TokenResult{Token: token, Success: true}
	}
	return results
}

// NoDirectory is a UserDirectory that knows no devices; bookings processed
// with it get no delivery-log entries.
type NoDirectory struct{}

// DeviceTokens returns no tokens.
func (NoDirectory) DeviceTokens(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}
