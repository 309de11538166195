package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	cacheAdapter "lingo-bridge/internal/infrastructure/cache/adapter"
	"lingo-bridge/internal/infrastructure/database"
	pipelineAdapter "lingo-bridge/internal/infrastructure/pipeline/adapter"
	queueAdapter "lingo-bridge/internal/infrastructure/queue/adapter"
	"lingo-bridge/internal/pkg/chat/application/task"
	repoAdapter "lingo-bridge/internal/pkg/chat/persistence/repository/adapter"
)

// Worker process: drains the dispatch queue and hands pending messages to the
// translation pipeline. Runs separately from the API so a slow pipeline never
// backs up message sends.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := database.NewPoolFromEnv(ctx)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	repo := repoAdapter.NewPgChatRepository(pool)

	cache, err := cacheAdapter.NewRedisAdapter()
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer cache.Close()

	pipelineClient, err := pipelineAdapter.NewHTTPClientFromEnv()
	if err != nil {
		log.Fatalf("failed to create pipeline client: %v", err)
	}

	srv, err := queueAdapter.NewAsynqServer(func(ctx context.Context, taskType string, payload []byte) {
		if taskType == task.DispatchTranslationTaskType {
			task.MarkExhausted(ctx, repo, payload)
		}
	})
	if err != nil {
		log.Fatalf("failed to create queue server: %v", err)
	}

	task.RegisterDispatchTranslationTask(srv, repo, pipelineClient, cache)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("worker: consuming dispatch queue")
	if err := srv.Run(runCtx); err != nil {
		log.Fatalf("worker stopped: %v", err)
	}
}
