package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	chat "lingo-bridge/internal/pkg/chat/application/domain"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

// notifyChannel is the Postgres NOTIFY channel written by the messages
// trigger. One channel for all conversations; the payload carries chat_id and
// fan-out happens here.
const notifyChannel = "messages_feed"

const subscriberBuffer = 256

// PgMessageListener turns Postgres NOTIFY traffic into typed MessageEvents.
// One Run loop serves any number of per-conversation subscribers.
type PgMessageListener struct {
	pool *pgxpool.Pool

	mu     sync.RWMutex
	subs   map[string]map[int]chan repository.MessageEvent // conversationID -> subID -> channel
	nextID int
}

func NewPgMessageListener(pool *pgxpool.Pool) *PgMessageListener {
	return &PgMessageListener{
		pool: pool,
		subs: make(map[string]map[int]chan repository.MessageEvent),
	}
}

var _ repository.MessageListener = (*PgMessageListener)(nil)

// notifyPayload mirrors the trigger output. The trigger sends ids only
// because NOTIFY payloads are capped at 8000 bytes; the listener reads the
// row back before fanning out.
type notifyPayload struct {
	Event  string `json:"event"`
	ID     string `json:"id"`
	ChatID string `json:"chat_id"`
}

func (p notifyPayload) eventKind() repository.EventKind {
	if p.Event == "update" {
		return repository.EventUpdate
	}
	return repository.EventInsert
}

// Run blocks listening for notifications until ctx is canceled. It holds a
// dedicated connection; reconnect-on-error is the caller's loop.
func (l *PgMessageListener) Run(ctx context.Context) error {
	if l == nil || l.pool == nil {
		return errors.New("PgMessageListener: nil pool")
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		var payload notifyPayload
		if err := json.Unmarshal([]byte(n.Payload), &payload); err != nil {
			log.Printf("listener: malformed notify payload: %v", err)
			continue
		}
		if payload.ID == "" || !l.hasSubscribers(payload.ChatID) {
			continue
		}

		// Read the notified row back off the pool, not the LISTEN connection,
		// so a slow query never stalls notification delivery state.
		row := l.pool.QueryRow(ctx, `
			SELECT `+messageColumns+` FROM messages WHERE id = $1::uuid
		`, payload.ID)
		msg, err := scanMessage(row)
		if err != nil {
			log.Printf("listener: read back message %s: %v", payload.ID, err)
			continue
		}
		l.dispatch(payload.eventKind(), *msg)
	}
}

func (l *PgMessageListener) hasSubscribers(conversationID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs[conversationID]) > 0
}

func (l *PgMessageListener) dispatch(kind repository.EventKind, msg chat.Message) {
	event := repository.MessageEvent{Kind: kind, Message: msg}

	l.mu.RLock()
	defer l.mu.RUnlock()
	for id, ch := range l.subs[msg.ChatID] {
		select {
		case ch <- event:
		default:
			// Slow consumer; dropping keeps the notify loop unblocked.
			log.Printf("listener: dropped %s event for subscriber %d (chat %s)", kind, id, msg.ChatID)
		}
	}
}

// Subscribe registers a per-conversation event channel. The cancel function
// is idempotent and closes the channel.
func (l *PgMessageListener) Subscribe(ctx context.Context, conversationID string) (<-chan repository.MessageEvent, func(), error) {
	if conversationID == "" {
		return nil, nil, errors.New("PgMessageListener: conversationID is required")
	}

	ch := make(chan repository.MessageEvent, subscriberBuffer)

	l.mu.Lock()
	l.nextID++
	id := l.nextID
	room := l.subs[conversationID]
	if room == nil {
		room = make(map[int]chan repository.MessageEvent)
		l.subs[conversationID] = room
	}
	room[id] = ch
	l.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			if room, ok := l.subs[conversationID]; ok {
				delete(room, id)
				if len(room) == 0 {
					delete(l.subs, conversationID)
				}
			}
			l.mu.Unlock()
			close(ch)
		})
	}

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	return ch, cancel, nil
}
