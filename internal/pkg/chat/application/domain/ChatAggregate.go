package chat

import (
	"errors"
	"time"
)

// Domain-level errors for chat behaviors
var (
	ErrInvalidConversation = errors.New("chat: conversation/message mismatch")
	ErrNotParticipant      = errors.New("chat: sender is not a participant in the conversation")
	ErrEmptyMessage        = errors.New("chat: empty message (no text or audio)")
	ErrContentMismatch     = errors.New("chat: message content does not match its kind")
	ErrStatusRegression    = errors.New("chat: translation status cannot move backward")
)

// Chat is the domain aggregate for a conversation and its invariants.
//
// Notes:
//   - This aggregate is intentionally minimal and in-memory; the application
//     layer hydrates it with the paired participants before invoking its
//     behaviors. Persistence stays in repositories.
//   - The learner/mentor pair is fixed per conversation; re-pairing swaps the
//     mentor reference without touching history, so membership is evaluated
//     against the current pair only.
type Chat struct {
	Conversation Conversation
	Participants map[string]Participant // keyed by userID
}

// HasParticipant tells whether userID is part of this chat.
func (c *Chat) HasParticipant(userID string) bool {
	if c == nil || c.Participants == nil {
		return false
	}
	_, ok := c.Participants[userID]
	return ok
}

// PostMessage applies domain rules and returns a validated message ready to
// persist.
//
// Validations:
// - Conversation/message identity must match
// - Sender must be the learner or current mentor
// - Exactly one content field must be set, matching the kind
//
// Behavior:
// - LanguageOriginal is stamped from the sender's current preference unless
//   the draft already carries one. It is never recomputed after this point.
// - TranslationStatus starts at pending when translationWanted, otherwise
//   not_applicable (text delivered as-is; translation is enrichment, not a
//   delivery gate).
// - A zero CreatedAt is set to now; the durable value is assigned by the
//   store on insert.
func (c *Chat) PostMessage(m Message, now time.Time, translationWanted bool) (Message, error) {
	if m.ChatID == "" || c.Conversation.ID == "" || m.ChatID != c.Conversation.ID {
		return Message{}, ErrInvalidConversation
	}

	if !c.HasParticipant(m.SenderID) {
		return Message{}, ErrNotParticipant
	}

	if m.LanguageOriginal == "" {
		if sender, ok := c.Participants[m.SenderID]; ok && sender.LanguagePreference != "" {
			m.LanguageOriginal = sender.LanguagePreference
		} else {
			m.LanguageOriginal = DefaultLanguage
		}
	}

	if translationWanted {
		m.TranslationStatus = TranslationPending
	} else {
		m.TranslationStatus = TranslationNotApplicable
	}

	if m.CreatedAt.IsZero() {
		if now.IsZero() {
			now = time.Now().UTC()
		}
		m.CreatedAt = now.UTC()
	}

	validated, err := NewMessage(m)
	if err != nil {
		return Message{}, err
	}
	return *validated, nil
}
