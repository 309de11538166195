package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	queueport "lingo-bridge/internal/infrastructure/queue/port"
	chat "lingo-bridge/internal/pkg/chat/application/domain"
	"lingo-bridge/internal/pkg/chat/application/task"
	"lingo-bridge/internal/pkg/chat/application/usecase"
	repoAdapter "lingo-bridge/internal/pkg/chat/persistence/repository/adapter"
)

// SendMessageController handles the send-message endpoint only (one controller per endpoint).
// The message is persisted synchronously so the caller gets the durable
// record back for optimistic reconciliation; only the translation dispatch is
// deferred to the queue.
type SendMessageController struct {
	UC *usecase.SendMessageUseCase
	Q  queueport.Client
}

func NewSendMessageController(pool *pgxpool.Pool, client queueport.Client, session chat.SessionContext) *SendMessageController {
	repo := repoAdapter.NewPgChatRepository(pool)
	return &SendMessageController{
		UC: usecase.NewSendMessageUseCase(repo, session),
		Q:  client,
	}
}

// sendMessageRequest is the DTO for the HTTP request body
type sendMessageRequest struct {
	SenderID     string  `json:"sender_id" binding:"required"`
	MessageType  string  `json:"message_type" binding:"required"`
	TextOriginal *string `json:"text_original"`
	AudioURL     *string `json:"audio_url"`
	DedupeKey    *string `json:"dedupe_key"`
}

// Handle persists the message and enqueues its translation dispatch.
func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chatId")
		if chatID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
			return
		}

		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		msg, err := h.UC.Execute(ctx, usecase.SendMessageInput{
			ConversationID:   chatID,
			SenderID:         req.SenderID,
			Kind:             chat.MessageKind(req.MessageType),
			Text:             req.TextOriginal,
			AudioURL:         req.AudioURL,
			CorrelationToken: req.DedupeKey,
		})
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrPersistence):
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to persist message"})
			case errors.Is(err, chat.ErrNotParticipant):
				c.JSON(http.StatusForbidden, gin.H{"error": "sender is not a participant in this conversation"})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			}
			return
		}

		if msg.TranslationStatus == chat.TranslationPending {
			h.enqueueDispatch(ctx, msg.ID)
		}

		c.JSON(http.StatusCreated, toPayload(*msg))
	}
}

// enqueueDispatch is best-effort: a queue hiccup leaves the message pending
// and visible; the retry endpoint or a later requeue can pick it up.
func (h *SendMessageController) enqueueDispatch(ctx context.Context, messageID string) {
	t, err := task.NewDispatchTranslationTask(messageID)
	if err != nil {
		return
	}
	opts := queueport.EnqueueOption{
		Queue:     "chat",
		MaxRetry:  task.DispatchMaxRetry,
		UniqueTTL: time.Minute,
	}
	_, _ = h.Q.Enqueue(ctx, t, opts)
}
