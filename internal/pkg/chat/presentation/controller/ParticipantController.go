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

// ParticipantController handles participant registration and language
// preference changes.
type ParticipantController struct {
	RegisterUC   *usecase.RegisterParticipantUseCase
	PreferenceUC *usecase.SetLanguagePreferenceUseCase
}

func NewParticipantController(pool *pgxpool.Pool, adminSession chat.SessionContext) *ParticipantController {
	repo := adapter.NewPgChatRepository(pool)
	return &ParticipantController{
		RegisterUC:   usecase.NewRegisterParticipantUseCase(repo, adminSession),
		PreferenceUC: usecase.NewSetLanguagePreferenceUseCase(repo),
	}
}

type registerParticipantRequest struct {
	ID                 string `json:"id"`
	FullName           string `json:"full_name"`
	Role               string `json:"role" binding:"required"`
	LanguagePreference string `json:"language_preference"`
}

type setLanguageRequest struct {
	Language string `json:"language" binding:"required"`
}

// HandleRegister upserts a program member.
func (h *ParticipantController) HandleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerParticipantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		p, err := h.RegisterUC.Execute(ctx, usecase.RegisterParticipantInput{
			ID:                 req.ID,
			FullName:           req.FullName,
			Role:               chat.ParticipantRole(req.Role),
			LanguagePreference: req.LanguagePreference,
		})
		if err != nil {
			switch {
			case errors.Is(err, chat.ErrNotParticipant):
				c.JSON(http.StatusForbidden, gin.H{"error": "registration requires an admin session"})
			case errors.Is(err, usecase.ErrPersistence):
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":                  p.ID,
			"full_name":           p.FullName,
			"role":                p.Role,
			"language_preference": p.LanguagePreference,
			"created_at":          p.CreatedAt,
		})
	}
}

// HandleSetLanguage changes the language a participant writes in. Only future
// messages are affected.
func (h *ParticipantController) HandleSetLanguage() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}

		var req setLanguageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		err := h.PreferenceUC.Execute(ctx, usecase.SetLanguagePreferenceInput{
			UserID:   userID,
			Language: req.Language,
		})
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
			case errors.Is(err, usecase.ErrPersistence):
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": userID, "language_preference": req.Language})
	}
}
