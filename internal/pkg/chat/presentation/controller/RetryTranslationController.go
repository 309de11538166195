package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	queueport "lingo-bridge/internal/infrastructure/queue/port"
	"lingo-bridge/internal/pkg/chat/application/task"
	"lingo-bridge/internal/pkg/chat/application/usecase"
	"lingo-bridge/internal/pkg/chat/persistence/repository/adapter"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

// RetryTranslationController handles the explicit retry endpoint. Only failed
// messages are eligible; everything else is a 409.
type RetryTranslationController struct {
	UC *usecase.RetryTranslationUseCase
	Q  queueport.Client
}

func NewRetryTranslationController(pool *pgxpool.Pool, client queueport.Client) *RetryTranslationController {
	repo := adapter.NewPgChatRepository(pool)
	return &RetryTranslationController{
		UC: usecase.NewRetryTranslationUseCase(repo),
		Q:  client,
	}
}

func (h *RetryTranslationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		messageID := c.Param("messageId")
		if messageID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "messageId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := h.UC.Execute(ctx, messageID); err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			case errors.Is(err, repository.ErrConflict):
				c.JSON(http.StatusConflict, gin.H{"error": "message is not in a failed state"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		// The row is pending again; requeue the dispatch.
		if t, err := task.NewDispatchTranslationTask(messageID); err == nil {
			_, _ = h.Q.Enqueue(ctx, t, queueport.EnqueueOption{
				Queue:    "chat",
				MaxRetry: task.DispatchMaxRetry,
			})
		}

		c.JSON(http.StatusAccepted, gin.H{"id": messageID, "translation_status": "pending"})
	}
}
