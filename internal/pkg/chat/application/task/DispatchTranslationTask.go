package task

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	cacheport "lingo-bridge/internal/infrastructure/cache/port"
	pipeline "lingo-bridge/internal/infrastructure/pipeline/port"
	qport "lingo-bridge/internal/infrastructure/queue/port"
	"lingo-bridge/internal/pkg/chat/application/usecase"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

// DispatchTranslationTaskType is the queue task name for handing a message to
// the translation pipeline.
const DispatchTranslationTaskType = "chat:dispatch_translation"

// DispatchMaxRetry bounds transport-level retries. Exhaustion marks the
// message failed instead of retrying forever; the queue applies capped
// exponential backoff between attempts.
const DispatchMaxRetry = 5

// DispatchTranslationTaskPayload is the JSON payload transported via the queue.
// Kept decoupled from domain types to avoid tight coupling with JSON tags.
type DispatchTranslationTaskPayload struct {
	MessageID string `json:"messageId"`
}

// NewDispatchTranslationTask builds the queue task for a message id.
func NewDispatchTranslationTask(messageID string) (qport.Task, error) {
	b, err := json.Marshal(DispatchTranslationTaskPayload{MessageID: messageID})
	if err != nil {
		return qport.Task{}, err
	}
	return qport.Task{Type: DispatchTranslationTaskType, Payload: b}, nil
}

// RegisterDispatchTranslationTask binds the task handler to the provided
// server. The handler executes DispatchTranslationUseCase; returning a
// non-nil error signals the queue to retry per its backoff policy.
func RegisterDispatchTranslationTask(srv qport.Server, repo repository.ChatRepository, client pipeline.Client, cache cacheport.Cache) {
	uc := usecase.NewDispatchTranslationUseCase(repo, client, cache)

	srv.Register(DispatchTranslationTaskType, func(ctx context.Context, t qport.Task) error {
		var p DispatchTranslationTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: do not retry indefinitely
			return nil
		}

		// Give the hand-off a generous budget; speech pipelines accept
		// slowly under load.
		ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()

		err := uc.Execute(ctx, p.MessageID)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, usecase.ErrPipelineRejected):
			// Terminal for this message; already marked failed. Retrying the
			// task would not change the outcome.
			log.Printf("dispatch task: message %s rejected by pipeline: %v", p.MessageID, err)
			return nil
		default:
			// Transport or store trouble: let the queue retry. The message
			// stays pending and visible with its original content.
			return err
		}
	})
}

// MarkExhausted is called by the queue's failure hook when a task runs out of
// retries; it records the terminal failure so the message does not sit
// pending forever.
func MarkExhausted(ctx context.Context, repo repository.ChatRepository, payload []byte) {
	var p DispatchTranslationTaskPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.MessageID == "" {
		return
	}
	if err := repo.MarkFailed(ctx, p.MessageID); err != nil &&
		!errors.Is(err, repository.ErrConflict) && !errors.Is(err, repository.ErrNotFound) {
		log.Printf("dispatch task: mark exhausted %s: %v", p.MessageID, err)
	}
}
