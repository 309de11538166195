package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	chat "lingo-bridge/internal/pkg/chat/application/domain"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

// RegisterParticipantInput carries a new or updated program member.
type RegisterParticipantInput struct {
	ID                 string
	FullName           string
	Role               chat.ParticipantRole
	LanguagePreference string
}

// RegisterParticipantUseCase upserts a participant. Admin-only: membership in
// the program is managed by staff, not self-service.
type RegisterParticipantUseCase struct {
	Repo    repository.ChatRepository
	Session chat.SessionContext
}

func NewRegisterParticipantUseCase(repo repository.ChatRepository, session chat.SessionContext) *RegisterParticipantUseCase {
	return &RegisterParticipantUseCase{Repo: repo, Session: session}
}

func (uc *RegisterParticipantUseCase) Execute(ctx context.Context, in RegisterParticipantInput) (*chat.Participant, error) {
	if uc.Session.Participant.Role != chat.RoleAdmin {
		return nil, chat.ErrNotParticipant
	}
	switch in.Role {
	case chat.RoleLearner, chat.RoleMentor, chat.RoleAdmin:
	default:
		return nil, fmt.Errorf("unknown role %q", in.Role)
	}
	if in.LanguagePreference == "" {
		in.LanguagePreference = chat.DefaultLanguage
	}
	if in.LanguagePreference != chat.LanguageEnglish && in.LanguagePreference != chat.LanguageUrdu {
		return nil, fmt.Errorf("unsupported language %q", in.LanguagePreference)
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}

	p := chat.Participant{
		ID:                 in.ID,
		FullName:           in.FullName,
		Role:               in.Role,
		LanguagePreference: in.LanguagePreference,
		CreatedAt:          uc.Session.Now(),
	}
	if err := uc.Repo.AddParticipant(ctx, p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &p, nil
}
