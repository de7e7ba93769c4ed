package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"candle-analyzer/internal/cache"
	"candle-analyzer/internal/config"
	"candle-analyzer/internal/db"
	"candle-analyzer/internal/handler"
	"candle-analyzer/internal/repository"
	"candle-analyzer/internal/service"
	"candle-analyzer/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()

	tp, tracer, err := tracing.InitTracer(ctx)
	if err != nil {
		log.Fatalf("init tracer: %v", err)
	}
	defer tp.Shutdown(ctx)

	pool, err := db.InitPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("init postgres: %v", err)
	}
	defer pool.Close()

	redisClient, err := cache.InitRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("init redis: %v", err)
	}

	repo := repository.NewAnalysisRepository(pool, tracer)
	if err := repo.RunMigrations(ctx); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	// A typed nil *redis.Client must not leak into the interface field.
	var redisIface service.RedisClient
	if redisClient != nil {
		redisIface = redisClient
	}
	queries := service.NewQueryService(tracer, repo, redisIface)

	router := gin.Default()
	router.Use(otelgin.Middleware("candle-analyzer"))
	handler.New(tracer, queries).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		log.Printf("Query API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server shutdown: %v", err)
	}
	log.Println("Server stopped")
}
