// Package view maintains the ordered, deduplicated per-conversation message
// list a client renders: the union of the seed history, the client's own
// optimistic sends, and realtime inserts/updates arriving in arbitrary order.
package view

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	chat "lingo-bridge/internal/pkg/chat/application/domain"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

// defaultBufferTTL bounds how long an update may wait for its matching
// insert before being discarded.
const defaultBufferTTL = 2 * time.Minute

const optimisticIDPrefix = "optimistic-"

type bufferedUpdate struct {
	msg     chat.Message
	expires time.Time
}

// Merger merges all message sources into one sorted, duplicate-free sequence
// keyed by (created_at, id). Applies are idempotent: redelivered events and
// permuted arrival orders always converge to the same rendered list.
type Merger struct {
	mu      sync.Mutex
	session chat.SessionContext

	msgs []chat.Message // sorted by (CreatedAt, ID)
	ids  map[string]int // message id -> index in msgs

	optimistic map[string]string         // correlation token -> temporary id
	buffered   map[string]bufferedUpdate // message id -> update awaiting its insert
	bufferTTL  time.Duration
}

// Option tweaks merger construction.
type Option func(*Merger)

// WithBufferTTL overrides how long orphaned updates are retained.
func WithBufferTTL(ttl time.Duration) Option {
	return func(m *Merger) { m.bufferTTL = ttl }
}

// NewMerger seeds the sequence from the loaded history. The seed is
// normalized defensively: sorted and deduplicated by id even though the store
// already orders it.
func NewMerger(session chat.SessionContext, seed []chat.Message, opts ...Option) *Merger {
	m := &Merger{
		session:    session,
		ids:        make(map[string]int),
		optimistic: make(map[string]string),
		buffered:   make(map[string]bufferedUpdate),
		bufferTTL:  defaultBufferTTL,
	}
	for _, opt := range opts {
		opt(m)
	}

	sorted := make([]chat.Message, len(seed))
	copy(sorted, seed)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	for _, msg := range sorted {
		if _, ok := m.ids[msg.ID]; ok {
			continue
		}
		m.ids[msg.ID] = len(m.msgs)
		m.msgs = append(m.msgs, msg)
	}
	return m
}

// ApplyLocal appends an optimistic message immediately, before store
// confirmation, and returns the correlation token that will match it to the
// durable record. The token rides the create call as the dedupe key.
func (m *Merger) ApplyLocal(draft chat.Message) (chat.Message, string) {
	token := uuid.NewString()

	draft.ID = optimisticIDPrefix + token
	draft.DedupeKey = &token
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = m.session.Now()
	}
	if draft.SenderID == "" {
		draft.SenderID = m.session.Participant.ID
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.optimistic[token] = draft.ID
	m.insert(draft)
	return draft, token
}

// Confirm replaces the optimistic entry with its durable record. If the
// realtime insert beat the confirmation, the durable id is already present
// and the temporary entry is simply dropped: one logical message never shows
// twice.
func (m *Merger) Confirm(token string, durable chat.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolveOptimistic(token, durable)
}

// Apply folds one realtime store event into the sequence.
func (m *Merger) Apply(event repository.MessageEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()

	switch event.Kind {
	case repository.EventInsert:
		m.applyInsert(event.Message)
	case repository.EventUpdate:
		m.applyUpdate(event.Message)
	}
}

// Consume drains events until the channel closes or ctx is canceled,
// decoupling merge logic from the transport that produced the events.
func (m *Merger) Consume(ctx context.Context, events <-chan repository.MessageEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			m.Apply(event)
		}
	}
}

// Messages returns a copy of the rendered sequence.
func (m *Merger) Messages() []chat.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]chat.Message, len(m.msgs))
	copy(out, m.msgs)
	return out
}

func (m *Merger) applyInsert(msg chat.Message) {
	if _, ok := m.ids[msg.ID]; ok {
		// Redelivered insert; already applied.
		m.drainBuffered(msg.ID)
		return
	}

	// A remote insert carrying our correlation token is the durable form of
	// an optimistic entry.
	if msg.DedupeKey != nil {
		if _, ok := m.optimistic[*msg.DedupeKey]; ok {
			m.resolveOptimistic(*msg.DedupeKey, msg)
			m.drainBuffered(msg.ID)
			return
		}
	}

	m.insert(msg)
	m.drainBuffered(msg.ID)
}

func (m *Merger) applyUpdate(msg chat.Message) {
	if idx, ok := m.ids[msg.ID]; ok {
		// Same position, new content; sort key never changes on update.
		m.msgs[idx] = msg
		return
	}
	// The update raced ahead of its insert (or the insert was missed).
	// Buffer it and apply the moment the insert lands.
	m.buffered[msg.ID] = bufferedUpdate{msg: msg, expires: m.session.Now().Add(m.bufferTTL)}
}

func (m *Merger) resolveOptimistic(token string, durable chat.Message) {
	tempID, ok := m.optimistic[token]
	if !ok {
		// Already resolved; make sure the durable record is present.
		m.applyInsertNoToken(durable)
		return
	}
	delete(m.optimistic, token)

	if idx, present := m.ids[tempID]; present {
		m.removeAt(idx, tempID)
	}
	m.applyInsertNoToken(durable)
	m.drainBuffered(durable.ID)
}

func (m *Merger) applyInsertNoToken(msg chat.Message) {
	if _, ok := m.ids[msg.ID]; ok {
		return
	}
	m.insert(msg)
}

func (m *Merger) drainBuffered(id string) {
	pending, ok := m.buffered[id]
	if !ok {
		return
	}
	delete(m.buffered, id)
	if idx, present := m.ids[id]; present {
		m.msgs[idx] = pending.msg
	}
}

func (m *Merger) sweep() {
	if len(m.buffered) == 0 {
		return
	}
	now := m.session.Now()
	for id, pending := range m.buffered {
		if now.After(pending.expires) {
			delete(m.buffered, id)
		}
	}
}

// insert places msg at the position implied by (created_at, id), not
// necessarily the tail: network delivery order does not track creation order.
func (m *Merger) insert(msg chat.Message) {
	pos := sort.Search(len(m.msgs), func(i int) bool { return msg.Before(m.msgs[i]) })

	m.msgs = append(m.msgs, chat.Message{})
	copy(m.msgs[pos+1:], m.msgs[pos:])
	m.msgs[pos] = msg

	for id, idx := range m.ids {
		if idx >= pos {
			m.ids[id] = idx + 1
		}
	}
	m.ids[msg.ID] = pos
}

func (m *Merger) removeAt(pos int, id string) {
	m.msgs = append(m.msgs[:pos], m.msgs[pos+1:]...)
	delete(m.ids, id)
	for other, idx := range m.ids {
		if idx > pos {
			m.ids[other] = idx - 1
		}
	}
}
