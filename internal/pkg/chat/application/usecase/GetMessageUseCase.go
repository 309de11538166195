package usecase

import (
	"context"
	"fmt"

	chat "lingo-bridge/internal/pkg/chat/application/domain"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

// GetMessageInput carries parameters to fetch messages of a conversation.
// Limit <= 0 returns the full history (no pagination contract yet; a scaling
// gap for long-running conversations).
type GetMessageInput struct {
	ConversationID string
	Limit          int
	Offset         int
}

// GetMessageUseCase fetches messages for a given conversation
// Hexagonal: depends only on repository port
// One class per use case (own file)
type GetMessageUseCase struct {
	Repo repository.ChatRepository
}

func NewGetMessageUseCase(repo repository.ChatRepository) *GetMessageUseCase {
	return &GetMessageUseCase{Repo: repo}
}

// Execute returns messages ordered by (created_at, id) ascending.
func (uc *GetMessageUseCase) Execute(ctx context.Context, in GetMessageInput) ([]chat.Message, error) {
	if in.ConversationID == "" {
		return nil, fmt.Errorf("conversationId is required")
	}
	msgs, err := uc.Repo.GetMessagesByConversation(ctx, in.ConversationID, in.Limit, in.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}
