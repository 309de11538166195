package controller

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"lingo-bridge/internal/infrastructure/realtime"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

// eventFrame is the websocket form of a store change event.
type eventFrame struct {
	Type           string         `json:"type"` // "message" or "message_updated"
	ConversationID string         `json:"conversation_id"`
	Message        messagePayload `json:"message"`
}

// EventBridge forwards store change notifications to websocket rooms. One
// subscription per conversation, created lazily on first join and held for
// the life of the process; the listener channel is the single source of
// remote inserts and translation updates, which also covers members connected
// on other nodes.
type EventBridge struct {
	listener repository.MessageListener
	router   *realtime.Router

	mu      sync.Mutex
	cancels map[string]func()
	ctx     context.Context
}

func NewEventBridge(ctx context.Context, listener repository.MessageListener, router *realtime.Router) *EventBridge {
	return &EventBridge{
		listener: listener,
		router:   router,
		cancels:  make(map[string]func()),
		ctx:      ctx,
	}
}

// Ensure starts forwarding for the conversation if not already running.
func (b *EventBridge) Ensure(conversationID string) {
	b.mu.Lock()
	if _, ok := b.cancels[conversationID]; ok {
		b.mu.Unlock()
		return
	}

	events, cancel, err := b.listener.Subscribe(b.ctx, conversationID)
	if err != nil {
		b.mu.Unlock()
		log.Printf("event bridge: subscribe %s: %v", conversationID, err)
		return
	}
	b.cancels[conversationID] = cancel
	b.mu.Unlock()

	go b.forward(conversationID, events)
}

// ReleaseIfIdle drops the conversation subscription once its room has no
// members left on this node. The next join resubscribes.
func (b *EventBridge) ReleaseIfIdle(conversationID string) {
	if b.router.RoomSize(conversationID) > 0 {
		return
	}
	b.mu.Lock()
	cancel, ok := b.cancels[conversationID]
	if ok {
		delete(b.cancels, conversationID)
	}
	b.mu.Unlock()
	if ok {
		cancel()
	}
}

// Close releases every subscription.
func (b *EventBridge) Close() {
	b.mu.Lock()
	cancels := b.cancels
	b.cancels = make(map[string]func())
	b.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (b *EventBridge) forward(conversationID string, events <-chan repository.MessageEvent) {
	for ev := range events {
		frameType := "message"
		if ev.Kind == repository.EventUpdate {
			frameType = "message_updated"
		}

		frame := eventFrame{
			Type:           frameType,
			ConversationID: conversationID,
			Message:        toPayload(ev.Message),
		}
		payload, err := json.Marshal(frame)
		if err != nil {
			continue
		}
		b.router.Broadcast(conversationID, payload, "")
	}
	// The channel only closes through a cancel path, which already removed the
	// map entry; deleting here could clobber a fresh resubscription.
}
