package usecase

import (
	"context"
	"fmt"

	chat "lingo-bridge/internal/pkg/chat/application/domain"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

// CreateChatInput carries the admin pairing action: exactly one learner and
// one mentor.
type CreateChatInput struct {
	LearnerID string
	MentorID  string
}

// CreateChatUseCase handles creation of a new learner-mentor conversation.
// Pairing is admin-initiated and happens once; conversations are never
// deleted, only re-paired via ReassignMentorUseCase.
type CreateChatUseCase struct {
	Repo    repository.ChatRepository
	Session chat.SessionContext
}

func NewCreateChatUseCase(repo repository.ChatRepository, session chat.SessionContext) *CreateChatUseCase {
	return &CreateChatUseCase{Repo: repo, Session: session}
}

// Execute persists the pairing.
func (uc *CreateChatUseCase) Execute(ctx context.Context, in CreateChatInput) (*chat.Conversation, error) {
	if in.LearnerID == "" || in.MentorID == "" {
		return nil, fmt.Errorf("learner_id and mentor_id are required")
	}
	if in.LearnerID == in.MentorID {
		return nil, fmt.Errorf("learner and mentor must be distinct participants")
	}
	if uc.Session.Participant.Role != chat.RoleAdmin {
		return nil, chat.ErrNotParticipant
	}

	conv := chat.Conversation{
		LearnerID: in.LearnerID,
		MentorID:  in.MentorID,
		CreatedAt: uc.Session.Now(),
	}

	id, err := uc.Repo.CreateConversation(ctx, conv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	conv.ID = id
	return &conv, nil
}
