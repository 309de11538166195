package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "lingo-bridge/internal/pkg/chat/application/domain"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

// CompleteTranslationInput is the pipeline's asynchronous writeback.
type CompleteTranslationInput struct {
	MessageID          string
	TextTranslated     *string
	TranslatedAudioURL *string
	Failed             bool
}

// CompleteTranslationUseCase lands the pipeline result: translated content
// and terminal status are written in a single store update, so a reader never
// observes completed without translated content. A failure keeps the original
// content visible; only the translation is absent.
type CompleteTranslationUseCase struct {
	Repo repository.ChatRepository
}

func NewCompleteTranslationUseCase(repo repository.ChatRepository) *CompleteTranslationUseCase {
	return &CompleteTranslationUseCase{Repo: repo}
}

func (uc *CompleteTranslationUseCase) Execute(ctx context.Context, in CompleteTranslationInput) (*chat.Message, error) {
	if in.MessageID == "" {
		return nil, fmt.Errorf("messageId is required")
	}

	if in.Failed {
		if err := uc.Repo.MarkFailed(ctx, in.MessageID); err != nil {
			if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrConflict) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		msg, err := uc.Repo.GetMessage(ctx, in.MessageID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return msg, nil
	}

	if in.TextTranslated == nil && in.TranslatedAudioURL == nil {
		return nil, fmt.Errorf("completed writeback requires translated content")
	}

	msg, err := uc.Repo.ApplyTranslation(ctx, in.MessageID, repository.TranslationPatch{
		TextTranslated:     in.TextTranslated,
		TranslatedAudioURL: in.TranslatedAudioURL,
		Status:             chat.TranslationCompleted,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msg, nil
}
