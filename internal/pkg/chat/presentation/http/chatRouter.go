package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	qport "lingo-bridge/internal/infrastructure/queue/port"
	"lingo-bridge/internal/infrastructure/realtime"
	chat "lingo-bridge/internal/pkg/chat/application/domain"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
	"lingo-bridge/internal/pkg/chat/presentation/controller"
)

// Deps bundles the infrastructure handles the chat endpoints need.
type Deps struct {
	Pool     *pgxpool.Pool
	Queue    qport.Client
	Router   *realtime.Router
	Listener repository.MessageListener
	Session  chat.SessionContext
	// AdminSession authorizes the pairing endpoints; they sit on an internal
	// surface, not behind end-user auth.
	AdminSession chat.SessionContext
}

// RegisterRoutes registers chat-related HTTP endpoints under the given router group.
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(ctx context.Context, g *gin.RouterGroup, deps Deps) *controller.EventBridge {
	bridge := controller.NewEventBridge(ctx, deps.Listener, deps.Router)

	createCtl := controller.NewCreateChatController(deps.Pool, deps.AdminSession)
	sendMsgCtl := controller.NewSendMessageController(deps.Pool, deps.Queue, deps.Session)
	getMsgCtl := controller.NewGetMessageController(deps.Pool)
	listCtl := controller.NewListParticipantsController(deps.Pool)
	retryCtl := controller.NewRetryTranslationController(deps.Pool, deps.Queue)
	callbackCtl := controller.NewPipelineCallbackController(deps.Pool)
	participantCtl := controller.NewParticipantController(deps.Pool, deps.AdminSession)
	socketCtl := controller.NewChatSocketController(deps.Pool, deps.Router, bridge, deps.Queue, deps.Session)

	// POST /api/v1/chat -> pair a learner with a mentor
	g.POST("/chat", createCtl.Handle())

	// PATCH /api/v1/chat/:chatId/mentor -> re-pair with a new mentor
	g.PATCH("/chat/:chatId/mentor", createCtl.HandleReassign())

	// POST /api/v1/chat/:chatId -> send a message into a chat
	g.POST("/chat/:chatId", sendMsgCtl.Handle())

	// GET /api/v1/chat/:chatId/messages -> fetch conversation history
	g.GET("/chat/:chatId/messages", getMsgCtl.Handle())

	// GET /api/v1/chat/:chatId/participants -> learner-mentor pair
	g.GET("/chat/:chatId/participants", listCtl.Handle())

	// POST /api/v1/users -> register a participant
	g.POST("/users", participantCtl.HandleRegister())

	// PUT /api/v1/users/:userId/language -> change writing language
	g.PUT("/users/:userId/language", participantCtl.HandleSetLanguage())

	// POST /api/v1/messages/:messageId/retry -> re-enter a failed translation
	g.POST("/messages/:messageId/retry", retryCtl.Handle())

	// POST /api/v1/pipeline/callback -> translation pipeline writeback
	g.POST("/pipeline/callback", callbackCtl.Handle())

	// GET /api/v1/chat/ws -> websocket endpoint for realtime chat
	g.GET("/chat/ws", socketCtl.Handle())

	return bridge
}
