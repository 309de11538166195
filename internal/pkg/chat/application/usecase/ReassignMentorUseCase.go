package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "lingo-bridge/internal/pkg/chat/application/domain"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

// ReassignMentorInput swaps the mentor on an existing pairing.
type ReassignMentorInput struct {
	ConversationID string
	MentorID       string
}

// ReassignMentorUseCase re-pairs a conversation with a new mentor. Message
// history ownership is untouched: rows keep their original sender.
type ReassignMentorUseCase struct {
	Repo    repository.ChatRepository
	Session chat.SessionContext
}

func NewReassignMentorUseCase(repo repository.ChatRepository, session chat.SessionContext) *ReassignMentorUseCase {
	return &ReassignMentorUseCase{Repo: repo, Session: session}
}

func (uc *ReassignMentorUseCase) Execute(ctx context.Context, in ReassignMentorInput) error {
	if in.ConversationID == "" || in.MentorID == "" {
		return fmt.Errorf("conversation_id and mentor_id are required")
	}
	if uc.Session.Participant.Role != chat.RoleAdmin {
		return chat.ErrNotParticipant
	}
	if err := uc.Repo.ReassignMentor(ctx, in.ConversationID, in.MentorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
