// Package main is the application entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"domain-chat-go/internal/classifier"
	"domain-chat-go/internal/config"
	"domain-chat-go/internal/corpus"
	"domain-chat-go/internal/handler"
	"domain-chat-go/internal/middleware"
	"domain-chat-go/internal/service"
	"domain-chat-go/internal/vectorstore"
	"domain-chat-go/pkg/database"
	"domain-chat-go/pkg/embedding"
	"domain-chat-go/pkg/es"
	"domain-chat-go/pkg/kafka"
	"domain-chat-go/pkg/llm"
	"domain-chat-go/pkg/log"
	"domain-chat-go/pkg/storage"
	"domain-chat-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Configuration and logger.
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("logger initialized successfully")

	// 2. Embedding client, with the optional redis cache in front.
	var embeddingClient embedding.Client = embedding.NewClient(cfg.Embedding)
	if cfg.Embedding.Cache.Enabled {
		database.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		ttl := time.Duration(cfg.Embedding.Cache.TTLMinutes) * time.Minute
		embeddingClient = embedding.NewCachedClient(embeddingClient, database.RDB, cfg.Embedding.Model, ttl)
	}

	// 3. Corpus loader for the configured source.
	loader := newLoader(cfg.Corpus)

	// 4. Vector-store provider for the configured backend.
	provider := newProvider(cfg, embeddingClient)

	// 5. Classifier, generation client and prediction-event producer.
	domainClassifier := classifier.New(cfg.Classifier.ModelPath, cfg.Classifier.TestSize, cfg.Classifier.Seed)
	llmClient := llm.NewClient(cfg.LLM)
	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()

	queryService := service.NewQueryService(domainClassifier, loader, provider, llmClient, producer, service.Options{
		TopK:          cfg.Vectorstore.TopK,
		RebuildPolicy: cfg.Vectorstore.RebuildPolicy,
		LogQueries:    cfg.Log.LogQueries,
	})

	// 6. Cold start happens here, outside the request path: the classifier
	// is loaded or trained before the server accepts a single query.
	initTimeout := time.Duration(cfg.Server.InitTimeoutMinutes) * time.Minute
	initCtx, cancelInit := context.WithTimeout(context.Background(), initTimeout)
	defer cancelInit()
	if err := queryService.Init(initCtx); err != nil {
		log.Fatal("query service initialization failed", err)
	}

	// 7. Routes.
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenExpireHours)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	queryHandler := handler.NewQueryHandler(queryService)
	adminHandler := handler.NewAdminHandler(queryService)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/health", queryHandler.Health)
		apiV1.POST("/predict", queryHandler.Predict)

		admin := apiV1.Group("/admin")
		admin.Use(middleware.AdminAuth(jwtManager))
		{
			admin.POST("/retrain", adminHandler.Retrain)
			admin.POST("/rebuild", adminHandler.Rebuild)
		}
	}

	// 8. HTTP server with graceful shutdown.
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP server shutdown failed: %v", err)
	}
	log.Info("server stopped gracefully")
}

// newLoader selects the corpus source from the config.
func newLoader(cfg config.CorpusConfig) corpus.Loader {
	switch cfg.Source {
	case "mysql":
		database.InitMySQL(config.Conf.MySQL.DSN)
		return corpus.NewMySQLLoader(database.DB, cfg.Table)
	case "minio":
		storage.InitMinIO(config.Conf.MinIO)
		return corpus.NewMinIOLoader(storage.MinioClient, cfg.Bucket, cfg.Object)
	default:
		return corpus.NewFileLoader(cfg.Path)
	}
}

// newProvider selects the vector-store backend from the config.
func newProvider(cfg config.Config, embeddingClient embedding.Client) vectorstore.Provider {
	if cfg.Vectorstore.Backend == "elasticsearch" {
		if err := es.InitES(cfg.Elastic); err != nil {
			log.Fatal("elasticsearch initialization failed", err)
		}
		return vectorstore.NewESProvider(es.ESClient, cfg.Vectorstore.IndexPrefix, embeddingClient)
	}
	return vectorstore.NewRegistry(cfg.Vectorstore.Dir, embeddingClient)
}
