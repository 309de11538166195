package repository

import (
	"context"

	chat "lingo-bridge/internal/pkg/chat/application/domain"
)

// EventKind tags a realtime store notification.
type EventKind string

const (
	EventInsert EventKind = "insert"
	EventUpdate EventKind = "update"
)

// MessageEvent is a typed store change pushed to subscribers. Each remote
// insert/update is delivered exactly once per subscriber in arrival order;
// arrival order across different message ids is NOT guaranteed to match
// created_at order. The view layer reconciles.
type MessageEvent struct {
	Kind    EventKind
	Message chat.Message
}

// MessageListener exposes push-based change notifications for a conversation.
type MessageListener interface {
	// Subscribe registers a listener for the conversation. The returned
	// cancel function releases the subscription and closes the channel.
	Subscribe(ctx context.Context, conversationID string) (<-chan MessageEvent, func(), error)
}
