package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"lingo-bridge/internal/pkg/chat/application/usecase"
	"lingo-bridge/internal/pkg/chat/persistence/repository/adapter"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

// PipelineCallbackController receives the translation pipeline's asynchronous
// writeback. Content and terminal status land in one update; the store change
// feed carries the result to connected clients, so this handler only
// acknowledges.
type PipelineCallbackController struct {
	UC *usecase.CompleteTranslationUseCase
}

func NewPipelineCallbackController(pool *pgxpool.Pool) *PipelineCallbackController {
	repo := adapter.NewPgChatRepository(pool)
	return &PipelineCallbackController{UC: usecase.NewCompleteTranslationUseCase(repo)}
}

type pipelineCallbackRequest struct {
	MessageID          string  `json:"message_id" binding:"required"`
	Status             string  `json:"status" binding:"required"`
	TextTranslated     *string `json:"text_translated"`
	TranslatedAudioURL *string `json:"translated_audio_url"`
}

func (h *PipelineCallbackController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req pipelineCallbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		switch req.Status {
		case "completed", "failed":
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be completed or failed"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		msg, err := h.UC.Execute(ctx, usecase.CompleteTranslationInput{
			MessageID:          req.MessageID,
			TextTranslated:     req.TextTranslated,
			TranslatedAudioURL: req.TranslatedAudioURL,
			Failed:             req.Status == "failed",
		})
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			case errors.Is(err, repository.ErrConflict):
				// Late or duplicate writeback for an already-terminal row.
				c.JSON(http.StatusConflict, gin.H{"error": "message is no longer awaiting translation"})
			case errors.Is(err, usecase.ErrPersistence):
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, toPayload(*msg))
	}
}
