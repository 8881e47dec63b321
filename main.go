package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openrag/ragcore/config"
	"github.com/openrag/ragcore/controller"
	"github.com/openrag/ragcore/internal/embedding"
	"github.com/openrag/ragcore/internal/ingest"
	"github.com/openrag/ragcore/internal/orchestrator"
	"github.com/openrag/ragcore/internal/provider"
	"github.com/openrag/ragcore/internal/session"
	"github.com/openrag/ragcore/internal/tokencount"
	ragcorelogger "github.com/openrag/ragcore/logger"
)

func main() {
	cfg := config.Load()

	zapLogger, err := ragcorelogger.New(ragcorelogger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	if err != nil {
		log.Fatalf("FATAL: failed to build logger: %v", err)
	}
	defer zapLogger.Sync()

	if cfg.ProviderAPIKey == "" {
		zapLogger.Warn("PROVIDER_API_KEY is not set; provider calls will fail")
	}

	prov := provider.NewGeminiProvider(provider.GeminiConfig{
		BaseURL:               cfg.ProviderBaseURL,
		APIKey:                cfg.ProviderAPIKey,
		EmbeddingModel:        cfg.EmbeddingModel,
		GenerationModel:       cfg.GenerationModel,
		HTTPTimeout:           cfg.EmbeddingRequestTimeout,
		GenerationHTTPTimeout: cfg.GenerationRequestTimeout,
	}, zapLogger)

	embedClient := embedding.New(prov, embedding.Config{
		MaxConcurrentRequests: cfg.Session.MaxConcurrentEmbeddings,
		MaxRetries:            cfg.EmbeddingMaxRetries,
		CacheTTL:              time.Duration(cfg.EmbeddingCacheMinutes) * time.Minute,
		CacheMaxBytes:         cfg.EmbeddingCacheMaxBytes,
	}, zapLogger)

	tokens := tokencount.NewTiktokenEstimator(cfg.TokenEncodingModel)
	sessionManager := session.New(cfg.MaxActiveSessions, cfg.Session.SessionTTL)
	pipeline := ingest.New(embedClient, zapLogger)
	orch := orchestrator.New(pipeline, embedClient, prov, tokens, zapLogger)

	ragController := controller.New(sessionManager, orch, embedClient, prov, tokens, cfg.Session, zapLogger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		zapLogger.Info("request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
	controller.RegisterRoutes(router, ragController)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		zapLogger.Info("ragcore listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
