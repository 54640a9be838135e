// Package messaging provides the chat transport for TripWeaver.
package messaging

import "context"

// Handler consumes inbound chat events and produces reply text. An empty
// reply means nothing is sent back.
type Handler interface {
	HandleMessage(ctx context.Context, chatID int64, text string) string
	HandleLocation(ctx context.Context, chatID int64, lat, lon float64) string
}

// Service defines a pluggable message delivery abstraction. It supports
// sending messages and ingesting inbound events into a Handler.
type Service interface {
	// SendMessage sends a message to a chat.
	SendMessage(ctx context.Context, chatID int64, body string) error

	// Start begins background processing (e.g., polling for updates).
	Start(ctx context.Context, handler Handler) error

	// Stop stops background processing and cleans up resources.
	Stop() error
}
