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

	"github.com/laflotawines-debug/presupuestadorpro/config"
	"github.com/laflotawines-debug/presupuestadorpro/internal/api"
	"github.com/laflotawines-debug/presupuestadorpro/internal/broker"
	"github.com/laflotawines-debug/presupuestadorpro/internal/cart"
	"github.com/laflotawines-debug/presupuestadorpro/internal/catalog"
	"github.com/laflotawines-debug/presupuestadorpro/internal/importer"
	"github.com/laflotawines-debug/presupuestadorpro/internal/store"
	"github.com/laflotawines-debug/presupuestadorpro/internal/util"
	"github.com/laflotawines-debug/presupuestadorpro/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront service",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	tp, err := util.InitTracer("presupuestadorpro", cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Error("Failed to shutdown tracer", zap.Error(err))
			}
		}()
	}

	// Product storage: Postgres when configured, a single-file local slot
	// otherwise.
	var productStore store.ProductStore
	if cfg.Database.URL != "" {
		remote, err := store.NewRemoteStore(cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer remote.Close()
		productStore = remote
		logger.Info("Using remote product store")
	} else {
		local, err := store.NewLocalStore(cfg.Import.DataDir)
		if err != nil {
			logger.Fatal("Failed to open local product store", zap.Error(err))
		}
		productStore = local
		logger.Info("Using local product store", zap.String("data_dir", cfg.Import.DataDir))
	}

	// Cart drafts follow the same split: Redis slots when configured, files
	// under the data dir otherwise.
	var cartStore cart.Store
	if cfg.Redis.Addr != "" {
		redisStore, err := cart.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisStore.Close()
		cartStore = redisStore
		logger.Info("Using Redis cart store", zap.String("addr", cfg.Redis.Addr))
	} else {
		fileStore, err := cart.NewFileStore(cfg.Import.DataDir)
		if err != nil {
			logger.Fatal("Failed to open file cart store", zap.Error(err))
		}
		cartStore = fileStore
		logger.Info("Using file cart store", zap.String("data_dir", cfg.Import.DataDir))
	}

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicCatalog)
	defer producer.Close()
	publisher := broker.NewEventPublisher(producer)

	bulk := store.NewBulkWriter(productStore, cfg.Import.BatchSize)
	cat := catalog.New(productStore, cfg.Import.PageSize)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	cat.Refresh(startupCtx)
	startupCancel()
	logger.Info("Catalog loaded", zap.Int("products", len(cat.Products())))

	importSvc := importer.NewService(bulk, cat, publisher)
	carts := cart.NewManager(cat, cartStore)

	consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicCatalog, cfg.Kafka.ConsumerGroup)
	catalogWorker := worker.NewCatalogWorker(consumer, cat)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go func() {
		if err := catalogWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
			logger.Error("Catalog worker stopped", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(cat, importSvc, carts, publisher, cfg.Admin.Secret)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	workerCancel()
	if err := catalogWorker.Stop(); err != nil {
		logger.Error("Failed to stop catalog worker", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
