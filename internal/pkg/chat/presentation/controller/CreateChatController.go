package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "lingo-bridge/internal/pkg/chat/application/domain"
	"lingo-bridge/internal/pkg/chat/application/usecase"
	"lingo-bridge/internal/pkg/chat/persistence/repository/adapter"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

// CreateChatController handles the admin pairing endpoint.
// One controller per endpoint.
type CreateChatController struct {
	CreateUC   *usecase.CreateChatUseCase
	ReassignUC *usecase.ReassignMentorUseCase
}

func NewCreateChatController(pool *pgxpool.Pool, session chat.SessionContext) *CreateChatController {
	repo := adapter.NewPgChatRepository(pool)
	return &CreateChatController{
		CreateUC:   usecase.NewCreateChatUseCase(repo, session),
		ReassignUC: usecase.NewReassignMentorUseCase(repo, session),
	}
}

type createChatRequest struct {
	LearnerID string `json:"learner_id" binding:"required"`
	MentorID  string `json:"mentor_id" binding:"required"`
}

type reassignMentorRequest struct {
	MentorID string `json:"mentor_id" binding:"required"`
}

// Handle creates a learner-mentor pairing.
func (h *CreateChatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		conv, err := h.CreateUC.Execute(ctx, usecase.CreateChatInput{
			LearnerID: req.LearnerID,
			MentorID:  req.MentorID,
		})
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrPersistence):
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			case errors.Is(err, chat.ErrNotParticipant):
				c.JSON(http.StatusForbidden, gin.H{"error": "pairing requires an admin session"})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":         conv.ID,
			"learner_id": conv.LearnerID,
			"mentor_id":  conv.MentorID,
			"created_at": conv.CreatedAt,
		})
	}
}

// HandleReassign swaps the mentor on an existing pairing. Message history is
// left untouched.
func (h *CreateChatController) HandleReassign() gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chatId")
		if chatID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
			return
		}

		var req reassignMentorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		err := h.ReassignUC.Execute(ctx, usecase.ReassignMentorInput{
			ConversationID: chatID,
			MentorID:       req.MentorID,
		})
		if err != nil {
			switch {
			case errors.Is(err, chat.ErrNotParticipant):
				c.JSON(http.StatusForbidden, gin.H{"error": "re-pairing requires an admin session"})
			case errors.Is(err, repository.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			case errors.Is(err, usecase.ErrPersistence):
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": chatID, "mentor_id": req.MentorID})
	}
}
