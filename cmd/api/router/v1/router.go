package v1

import (
	"context"

	"github.com/gin-gonic/gin"

	"lingo-bridge/internal/pkg/chat/presentation/controller"
	httpHandler "lingo-bridge/internal/pkg/chat/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1.
func RegisterRoutes(ctx context.Context, r *gin.Engine, deps httpHandler.Deps) *controller.EventBridge {
	v1 := r.Group("/api/v1")
	return httpHandler.RegisterRoutes(ctx, v1, deps)
}
