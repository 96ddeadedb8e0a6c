// Package channel defines the surface the server uses to deliver replies,
// independent of which messaging channel is active. Adapters live in the
// whatsapp and line subpackages; everything conversational happens before
// a Client is involved.
package channel

import "context"

// Client sends outbound text on one messaging channel.
type Client interface {
	// Name identifies the channel in logs and metrics ("whatsapp", "line").
	Name() string

	// SendText delivers a plain text message to one conversation.
	SendText(ctx context.Context, to string, text string) error

	// Broadcast delivers the same text to every listed conversation.
	Broadcast(ctx context.Context, to []string, text string) error
}
