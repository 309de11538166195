package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	cacheport "lingo-bridge/internal/infrastructure/cache/port"
	pipeline "lingo-bridge/internal/infrastructure/pipeline/port"
	chat "lingo-bridge/internal/pkg/chat/application/domain"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

// inflightTTL bounds how long a dispatch guard lives. It mirrors the pipeline
// call ceiling so a crashed worker cannot wedge a message forever.
const inflightTTL = 5 * time.Minute

// DispatchTranslationUseCase advances a pending message into the translation
// pipeline: pending -> processing on an accepted correlation id. It is the
// hand-off half of the lifecycle controller; the writeback half is
// CompleteTranslationUseCase.
type DispatchTranslationUseCase struct {
	Repo     repository.ChatRepository
	Pipeline pipeline.Client
	Cache    cacheport.Cache
}

func NewDispatchTranslationUseCase(repo repository.ChatRepository, client pipeline.Client, cache cacheport.Cache) *DispatchTranslationUseCase {
	return &DispatchTranslationUseCase{Repo: repo, Pipeline: client, Cache: cache}
}

// Execute dispatches the message once.
//
//   - Not pending anymore: no-op. Requeues and duplicate deliveries are
//     harmless; exactly one terminal outcome is recorded per message.
//   - Pipeline unreachable: the in-flight guard is released and ErrDispatch
//     is returned so the queue retries with backoff. The message stays
//     pending and remains visible with its original content.
//   - Pipeline rejects the content: the message is marked failed.
func (uc *DispatchTranslationUseCase) Execute(ctx context.Context, messageID string) error {
	if messageID == "" {
		return fmt.Errorf("messageId is required")
	}

	msg, err := uc.Repo.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Nothing to dispatch; likely a stale task.
			return nil
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if msg.TranslationStatus != chat.TranslationPending {
		return nil
	}

	// At-most-one in-flight pipeline request per message.
	guardKey := "chat:dispatch:" + messageID
	if uc.Cache != nil {
		acquired, err := uc.Cache.SetNX(ctx, guardKey, "1", inflightTTL)
		if err != nil {
			return fmt.Errorf("%w: guard: %v", ErrDispatch, err)
		}
		if !acquired {
			return nil
		}
	}

	req := pipeline.Request{
		MessageID:  msg.ID,
		Kind:       string(chat.SelectPipeline(msg.LanguageOriginal)),
		SourceLang: msg.LanguageOriginal,
		TargetLang: chat.ResolveTargetLanguage(msg.LanguageOriginal),
	}
	switch msg.Kind {
	case chat.MessageKindAudio:
		if msg.AudioURL != nil {
			req.AudioURL = *msg.AudioURL
		}
	case chat.MessageKindText:
		if msg.TextOriginal != nil {
			req.Text = *msg.TextOriginal
		}
	}

	correlationID, err := uc.Pipeline.Dispatch(ctx, req)
	if err != nil {
		uc.releaseGuard(ctx, guardKey)

		var rejection *pipeline.RejectionError
		if errors.As(err, &rejection) {
			if markErr := uc.Repo.MarkFailed(ctx, messageID); markErr != nil && !errors.Is(markErr, repository.ErrConflict) {
				return fmt.Errorf("%w: %v", ErrPersistence, markErr)
			}
			return fmt.Errorf("%w: %v", ErrPipelineRejected, err)
		}
		return fmt.Errorf("%w: %v", ErrDispatch, err)
	}

	if uc.Cache != nil {
		_ = uc.Cache.Set(ctx, "chat:correlation:"+messageID, correlationID, inflightTTL)
	}

	if err := uc.Repo.MarkProcessing(ctx, messageID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Someone else advanced it first; the pipeline owns it now.
			uc.releaseGuard(ctx, guardKey)
			return nil
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// The status row now dedupes late task deliveries on its own; dropping the
	// guard here keeps an explicit failed -> pending retry dispatchable before
	// the guard TTL lapses.
	uc.releaseGuard(ctx, guardKey)
	return nil
}

func (uc *DispatchTranslationUseCase) releaseGuard(ctx context.Context, key string) {
	if uc.Cache == nil {
		return
	}
	_, _ = uc.Cache.Del(ctx, key)
}
