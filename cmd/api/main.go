package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	v1 "lingo-bridge/cmd/api/router/v1"
	"lingo-bridge/internal/infrastructure/database"
	queueAdapter "lingo-bridge/internal/infrastructure/queue/adapter"
	"lingo-bridge/internal/infrastructure/realtime"
	chat "lingo-bridge/internal/pkg/chat/application/domain"
	repoAdapter "lingo-bridge/internal/pkg/chat/persistence/repository/adapter"
	httpHandler "lingo-bridge/internal/pkg/chat/presentation/http"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// Connect to the database on startup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := database.NewPoolFromEnv(ctx)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	queueClient, err := queueAdapter.NewAsynqClientFromEnv()
	if err != nil {
		log.Fatalf("failed to create queue client: %v", err)
	}
	defer queueClient.Close()

	appCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Store change feed: one LISTEN loop feeds every websocket room.
	listener := repoAdapter.NewPgMessageListener(pool)
	go func() {
		for {
			if err := listener.Run(appCtx); err != nil {
				if appCtx.Err() != nil {
					return
				}
				log.Printf("message listener stopped: %v; reconnecting", err)
				time.Sleep(2 * time.Second)
			}
		}
	}()

	wsRouter := realtime.NewRouter()
	defer wsRouter.Close()

	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "OK",
		})
	})

	bridge := v1.RegisterRoutes(appCtx, r, httpHandler.Deps{
		Pool:         pool,
		Queue:        queueClient,
		Router:       wsRouter,
		Listener:     listener,
		Session:      sessionFromEnv(),
		AdminSession: chat.SessionContext{Participant: chat.Participant{Role: chat.RoleAdmin}},
	})
	defer bridge.Close()

	// Start HTTP server (blocks until shutdown)
	_ = r.Run()
}

// sessionFromEnv builds the serving session. TRANSLATION_DISABLED_KINDS is a
// CSV of message kinds ("text,audio") excluded from the pipeline; SIMULATED=1
// runs the demo mode where nothing is dispatched.
func sessionFromEnv() chat.SessionContext {
	session := chat.SessionContext{
		Simulated:     os.Getenv("SIMULATED") == "1",
		DisabledKinds: make(map[chat.MessageKind]bool),
	}
	for _, kind := range strings.Split(os.Getenv("TRANSLATION_DISABLED_KINDS"), ",") {
		kind = strings.TrimSpace(kind)
		if kind != "" {
			session.DisabledKinds[chat.MessageKind(kind)] = true
		}
	}
	return session
}
