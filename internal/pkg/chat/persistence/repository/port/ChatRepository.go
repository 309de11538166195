package repository

import (
	"context"

	chat "lingo-bridge/internal/pkg/chat/application/domain"
)

// TranslationPatch carries the pipeline writeback. Content and terminal
// status are applied in a single store update so a reader never observes
// completed without translated content.
type TranslationPatch struct {
	TextTranslated     *string
	TranslatedAudioURL *string
	Status             chat.TranslationStatus
}

// ChatRepository defines persistence operations for the chat domain.
//
// Status guards are enforced here, not trusted from callers: updates that
// would move translation_status backward fail with the conflict sentinel of
// the adapter. The only backward move is RetryTranslation.
type ChatRepository interface {
	CreateConversation(ctx context.Context, c chat.Conversation) (string, error)
	GetConversation(ctx context.Context, id string) (*chat.Conversation, error)
	// ReassignMentor swaps the mentor reference; message history keeps its
	// original sender ownership.
	ReassignMentor(ctx context.Context, conversationID, mentorID string) error

	AddParticipant(ctx context.Context, p chat.Participant) error
	GetParticipant(ctx context.Context, id string) (*chat.Participant, error)
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error)
	SetLanguagePreference(ctx context.Context, userID, language string) error

	// SaveMessage persists a draft, letting the store assign id and
	// created_at, and returns the durable message.
	SaveMessage(ctx context.Context, m chat.Message) (*chat.Message, error)
	GetMessage(ctx context.Context, id string) (*chat.Message, error)
	// GetMessagesByConversation returns messages ordered by
	// (created_at, id) ascending. limit <= 0 means no limit.
	GetMessagesByConversation(ctx context.Context, conversationID string, limit int, offset int) ([]chat.Message, error)

	// MarkProcessing advances pending -> processing.
	MarkProcessing(ctx context.Context, messageID string) error
	// MarkFailed moves a non-terminal status to failed.
	MarkFailed(ctx context.Context, messageID string) error
	// ApplyTranslation writes the patch atomically, guarded against status
	// regression.
	ApplyTranslation(ctx context.Context, messageID string, patch TranslationPatch) (*chat.Message, error)
	// RetryTranslation is the explicit failed -> pending transition.
	RetryTranslation(ctx context.Context, messageID string) error
}
