package usecase

import (
	"context"
	"errors"
	"fmt"

	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

// RetryTranslationUseCase re-enters a failed message into the pipeline.
// This is the only state-regressing action (failed -> pending) and it is
// always explicit: nothing in the system retries a failed translation on its
// own.
type RetryTranslationUseCase struct {
	Repo repository.ChatRepository
}

func NewRetryTranslationUseCase(repo repository.ChatRepository) *RetryTranslationUseCase {
	return &RetryTranslationUseCase{Repo: repo}
}

func (uc *RetryTranslationUseCase) Execute(ctx context.Context, messageID string) error {
	if messageID == "" {
		return fmt.Errorf("messageId is required")
	}
	if err := uc.Repo.RetryTranslation(ctx, messageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrConflict) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
