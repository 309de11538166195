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
)

// ListParticipantsController returns the learner-mentor pair of a conversation.
type ListParticipantsController struct {
	UC *usecase.ListParticipantsUseCase
}

func NewListParticipantsController(pool *pgxpool.Pool) *ListParticipantsController {
	repo := adapter.NewPgChatRepository(pool)
	return &ListParticipantsController{UC: usecase.NewListParticipantsUseCase(repo)}
}

func (h *ListParticipantsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chatId")
		if chatID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		ids, err := h.UC.Execute(ctx, usecase.ListParticipantsInput{ConversationID: chatID})
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"participant_ids": ids})
	}
}
