package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "lingo-bridge/internal/pkg/chat/application/domain"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

// SetLanguagePreferenceInput changes the language a participant writes in.
type SetLanguagePreferenceInput struct {
	UserID   string
	Language string
}

// SetLanguagePreferenceUseCase updates a participant's language preference.
// The preference only affects messages created afterwards; stored rows keep
// the language they were written in.
type SetLanguagePreferenceUseCase struct {
	Repo repository.ChatRepository
}

func NewSetLanguagePreferenceUseCase(repo repository.ChatRepository) *SetLanguagePreferenceUseCase {
	return &SetLanguagePreferenceUseCase{Repo: repo}
}

func (uc *SetLanguagePreferenceUseCase) Execute(ctx context.Context, in SetLanguagePreferenceInput) error {
	if in.UserID == "" {
		return fmt.Errorf("userId is required")
	}
	if in.Language != chat.LanguageEnglish && in.Language != chat.LanguageUrdu {
		return fmt.Errorf("unsupported language %q", in.Language)
	}
	if err := uc.Repo.SetLanguagePreference(ctx, in.UserID, in.Language); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
