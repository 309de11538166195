package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"

	queueport "lingo-bridge/internal/infrastructure/queue/port"
	"lingo-bridge/internal/infrastructure/realtime"
	chat "lingo-bridge/internal/pkg/chat/application/domain"
	"lingo-bridge/internal/pkg/chat/application/task"
	"lingo-bridge/internal/pkg/chat/application/usecase"
	repoAdapter "lingo-bridge/internal/pkg/chat/persistence/repository/adapter"
)

// ChatSocketController handles the websocket endpoint for realtime chat traffic.
// Sends are acked to the sender with the durable record; everyone else (this
// node or another) receives the message through the store change feed via the
// event bridge.
type ChatSocketController struct {
	router          *realtime.Router
	bridge          *EventBridge
	queue           queueport.Client
	sendMessageUC   *usecase.SendMessageUseCase
	joinRoomUC      *usecase.JoinConversationUseCase
	inflightTimeout time.Duration
}

func NewChatSocketController(pool *pgxpool.Pool, router *realtime.Router, bridge *EventBridge, queue queueport.Client, session chat.SessionContext) *ChatSocketController {
	repo := repoAdapter.NewPgChatRepository(pool)
	return &ChatSocketController{
		router:          router,
		bridge:          bridge,
		queue:           queue,
		sendMessageUC:   usecase.NewSendMessageUseCase(repo, session),
		joinRoomUC:      usecase.NewJoinConversationUseCase(repo),
		inflightTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now; plug a proper checker when auth is added.
		return true
	},
}

type inboundFrame struct {
	Type           string  `json:"type"`
	ConversationID string  `json:"conversation_id,omitempty"`
	MessageType    string  `json:"message_type,omitempty"`
	TextOriginal   *string `json:"text_original,omitempty"`
	AudioURL       *string `json:"audio_url,omitempty"`
	DedupeKey      *string `json:"dedupe_key,omitempty"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type ackFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
}

const defaultReadTimeout = 60 * time.Second

// Handle upgrades HTTP connections to websocket and processes frames until the client disconnects.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just log and return.
			return
		}

		conn := realtime.NewConnection(userID, ws)
		ctl.router.Attach(conn)
		defer func() {
			vacated := ctl.router.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
			for _, conversationID := range vacated {
				ctl.bridge.ReleaseIfIdle(conversationID)
			}
		}()

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		handshakeAck := ackFrame{Type: "connected"}
		if payload, err := json.Marshal(handshakeAck); err == nil {
			_ = conn.Send(payload)
		}

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				ctl.replyError(conn, "read_error", err.Error())
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "bad_request", "invalid payload")
				continue
			}

			switch frame.Type {
			case "join":
				ctl.handleJoin(c, conn, frame)
			case "leave":
				ctl.handleLeave(conn, frame)
			case "message":
				ctl.handleMessage(c, conn, userID, frame)
			default:
				ctl.replyError(conn, "unsupported_type", "unknown frame type")
			}
		}
	}
}

func (ctl *ChatSocketController) handleJoin(c *gin.Context, conn *realtime.Connection, frame inboundFrame) {
	if frame.ConversationID == "" {
		ctl.replyError(conn, "bad_request", "conversation_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	err := ctl.joinRoomUC.Execute(ctx, usecase.JoinConversationInput{
		ConversationID: frame.ConversationID,
		UserID:         conn.UserID,
	})
	if err != nil {
		ctl.handleUseCaseError(conn, err)
		return
	}

	ctl.router.Join(frame.ConversationID, conn)
	ctl.bridge.Ensure(frame.ConversationID)

	ack := ackFrame{Type: "joined", ConversationID: frame.ConversationID}
	if payload, err := json.Marshal(ack); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *ChatSocketController) handleLeave(conn *realtime.Connection, frame inboundFrame) {
	if frame.ConversationID == "" {
		ctl.replyError(conn, "bad_request", "conversation_id is required")
		return
	}
	ctl.router.Leave(frame.ConversationID, conn)
	ctl.bridge.ReleaseIfIdle(frame.ConversationID)

	ack := ackFrame{Type: "left", ConversationID: frame.ConversationID}
	if payload, err := json.Marshal(ack); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *ChatSocketController) handleMessage(c *gin.Context, conn *realtime.Connection, userID string, frame inboundFrame) {
	if frame.ConversationID == "" {
		ctl.replyError(conn, "bad_request", "conversation_id is required")
		return
	}

	kind := chat.MessageKindText
	if frame.MessageType != "" {
		kind = chat.MessageKind(frame.MessageType)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	result, err := ctl.sendMessageUC.Execute(ctx, usecase.SendMessageInput{
		ConversationID:   frame.ConversationID,
		SenderID:         userID,
		Kind:             kind,
		Text:             frame.TextOriginal,
		AudioURL:         frame.AudioURL,
		CorrelationToken: frame.DedupeKey,
	})
	if err != nil {
		ctl.handleUseCaseError(conn, err)
		return
	}

	if result.TranslationStatus == chat.TranslationPending {
		if t, err := task.NewDispatchTranslationTask(result.ID); err == nil {
			_, _ = ctl.queue.Enqueue(ctx, t, queueport.EnqueueOption{
				Queue:     "chat",
				MaxRetry:  task.DispatchMaxRetry,
				UniqueTTL: time.Minute,
			})
		}
	}

	// Ack the sender with the durable record so the optimistic entry can be
	// confirmed; room fan-out rides the store change feed.
	out := eventFrame{
		Type:           "ack",
		ConversationID: frame.ConversationID,
		Message:        toPayload(*result),
	}
	if payload, err := json.Marshal(out); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *ChatSocketController) handleUseCaseError(conn *realtime.Connection, err error) {
	switch {
	case errors.Is(err, usecase.ErrPersistence):
		ctl.replyError(conn, "internal_error", "unexpected persistence error")
	case errors.Is(err, chat.ErrNotParticipant):
		ctl.replyError(conn, "forbidden", "user is not a participant in this conversation")
	default:
		ctl.replyError(conn, "bad_request", err.Error())
	}
}

func (ctl *ChatSocketController) replyError(conn *realtime.Connection, code string, message string) {
	frame := errorFrame{
		Type:  "error",
		Code:  code,
		Error: message,
	}
	if payload, err := json.Marshal(frame); err == nil {
		_ = conn.Send(payload)
	}
}
