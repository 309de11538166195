package chat

import (
	"errors"
	"strings"
	"time"
)

// MessageKind distinguishes the two message payloads.
type MessageKind string

const (
	MessageKindText  MessageKind = "text"
	MessageKindAudio MessageKind = "audio"
)

// TranslationStatus tracks pipeline progress for a message.
// Transitions only move forward (see CanAdvance); the sole backward move is
// the explicit retry failed -> pending.
type TranslationStatus string

const (
	TranslationNotApplicable TranslationStatus = "not_applicable"
	TranslationPending       TranslationStatus = "pending"
	TranslationProcessing    TranslationStatus = "processing"
	TranslationCompleted     TranslationStatus = "completed"
	TranslationFailed        TranslationStatus = "failed"
)

// statusRank orders statuses for the forward-only invariant. Terminal
// statuses share the top rank; not_applicable stands alone because nothing
// ever moves into or out of it.
var statusRank = map[TranslationStatus]int{
	TranslationPending:    1,
	TranslationProcessing: 2,
	TranslationCompleted:  3,
	TranslationFailed:     3,
}

// CanAdvance reports whether moving from -> to is a legal automatic
// transition. Retry (failed -> pending) is deliberately excluded; it is the
// only state-regressing action and must go through the explicit retry path.
func CanAdvance(from, to TranslationStatus) bool {
	if from == TranslationNotApplicable || to == TranslationNotApplicable {
		return false
	}
	rf, okf := statusRank[from]
	rt, okt := statusRank[to]
	if !okf || !okt {
		return false
	}
	return rt > rf
}

// IsTerminal reports whether no automatic transition leaves the status.
func (s TranslationStatus) IsTerminal() bool {
	return s == TranslationCompleted || s == TranslationFailed || s == TranslationNotApplicable
}

// Message is an immutable log entry in a conversation. Content fields are
// writer-owned by the sender at creation; only the translated fields and
// TranslationStatus are touched afterwards, and only by the pipeline.
type Message struct {
	ID                 string            `db:"id"`
	ChatID             string            `db:"chat_id"`
	SenderID           string            `db:"sender_id"`
	Kind               MessageKind       `db:"message_type"`
	TextOriginal       *string           `db:"text_original"`
	TextTranslated     *string           `db:"text_translated"`
	AudioURL           *string           `db:"audio_url"`
	TranslatedAudioURL *string           `db:"translated_audio_url"`
	LanguageOriginal   string            `db:"language_original"`
	TranslationStatus  TranslationStatus `db:"translation_status"`
	CreatedAt          time.Time         `db:"created_at"`
	DedupeKey          *string           `db:"dedupe_key"`
}

// NewMessage validates and normalizes a draft message.
//
// Invariant: exactly one of (TextOriginal, AudioURL) is set, matching Kind.
// LanguageOriginal is captured from the sender's preference at creation and
// never recomputed, so a later preference change does not rewrite history.
func NewMessage(m Message) (*Message, error) {
	if m.ChatID == "" || m.SenderID == "" {
		return nil, errors.New("chat_id and sender_id are required")
	}

	if m.TextOriginal != nil {
		trimmed := strings.TrimSpace(*m.TextOriginal)
		if trimmed == "" {
			m.TextOriginal = nil
		} else {
			m.TextOriginal = &trimmed
		}
	}

	switch m.Kind {
	case MessageKindText:
		if m.TextOriginal == nil {
			return nil, ErrEmptyMessage
		}
		if m.AudioURL != nil {
			return nil, ErrContentMismatch
		}
	case MessageKindAudio:
		if m.AudioURL == nil || strings.TrimSpace(*m.AudioURL) == "" {
			return nil, ErrEmptyMessage
		}
		if m.TextOriginal != nil {
			return nil, ErrContentMismatch
		}
	default:
		return nil, ErrContentMismatch
	}

	if m.LanguageOriginal == "" {
		m.LanguageOriginal = DefaultLanguage
	}
	if m.TranslationStatus == "" {
		m.TranslationStatus = TranslationPending
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	return &m, nil
}

// Before reports whether m sorts ahead of other in the display order.
// CreatedAt is the sole ordering key; ties are broken by id so every client
// renders an identical sequence without relying on clock sync.
func (m Message) Before(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}
