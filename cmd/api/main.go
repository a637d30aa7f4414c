package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/omnikit/catalog-composition-service/config"
	"github.com/omnikit/catalog-composition-service/internal/pkg/broker"
	"github.com/omnikit/catalog-composition-service/internal/pkg/cache"
	"github.com/omnikit/catalog-composition-service/internal/pkg/database"
	"github.com/omnikit/catalog-composition-service/internal/pkg/logger"
	"github.com/omnikit/catalog-composition-service/internal/pkg/search"

	compH "github.com/omnikit/catalog-composition-service/internal/composition/handler"
	compRepoPkg "github.com/omnikit/catalog-composition-service/internal/composition/repository"
	compUCPkg "github.com/omnikit/catalog-composition-service/internal/composition/usecase"

	migH "github.com/omnikit/catalog-composition-service/internal/migration/handler"
	migRepoPkg "github.com/omnikit/catalog-composition-service/internal/migration/repository"
	migUCPkg "github.com/omnikit/catalog-composition-service/internal/migration/usecase"

	prodH "github.com/omnikit/catalog-composition-service/internal/product/handler"
	prodRepoPkg "github.com/omnikit/catalog-composition-service/internal/product/repository"
	prodUCPkg "github.com/omnikit/catalog-composition-service/internal/product/usecase"

	varH "github.com/omnikit/catalog-composition-service/internal/variation/handler"
	varRepoPkg "github.com/omnikit/catalog-composition-service/internal/variation/repository"
	varUCPkg "github.com/omnikit/catalog-composition-service/internal/variation/usecase"
)

func main() {
	// 1. Load configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to database
	db, err := database.NewPostgres(&database.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Postgres.ConnMaxIdleTime,
	})
	if err != nil {
		appLogger.Fatal("could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("connected to PostgreSQL", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize repositories
	prodRepo := prodRepoPkg.NewPGRepository(db)
	compRepo := compRepoPkg.NewPGRepository(db)
	varTypeRepo := varRepoPkg.NewPGTypeRepository(db)
	varRepo := varRepoPkg.NewPGVariationRepository(db)
	varItemRepo := varRepoPkg.NewPGItemRepository(db)
	backupStore := migRepoPkg.NewPGBackupStore(db)

	// 5. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5.5 Initialize Kafka publisher
	publisher := broker.NewKafkaPublisher(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
	defer publisher.Close()
	appLogger.Info("initialized Kafka publisher", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	// 5.8 Initialize Elasticsearch. Search degrades to the database when
	// the cluster is unreachable, so this is never fatal.
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("could not connect to Elasticsearch, search falls back to database", zap.Error(err))
		esClient = nil
	} else {
		appLogger.Info("connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 6. Initialize usecases
	compUC := compUCPkg.NewCompositionUseCase(compRepo, prodRepo, varItemRepo, varTypeRepo, redisClient, appLogger.Named("composition"))
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, compRepo, varItemRepo, compUC, redisClient, esClient, publisher, appLogger.Named("product"))
	varUC := varUCPkg.NewVariationUseCase(varTypeRepo, varRepo, varItemRepo, prodRepo, compRepo, compUC, appLogger.Named("variation"))
	migUC := migUCPkg.NewMigrationUseCase(prodRepo, compRepo, varItemRepo, backupStore, publisher, appLogger.Named("migration"))

	// 7. Initialize handlers and routes
	if cfg.Server.AppEnv != "dev" && cfg.Server.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	prodH.NewProductHandler(prodUC, appLogger).RegisterRoutes(v1)
	compH.NewCompositionHandler(compUC, appLogger).RegisterRoutes(v1)
	varH.NewVariationHandler(varUC, appLogger).RegisterRoutes(v1)
	migH.NewMigrationHandler(migUC, backupStore, appLogger).RegisterRoutes(v1)

	// 8. Start HTTP server with graceful shutdown
	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	srv := &http.Server{
		Addr:    port,
		Handler: router,
	}

	go func() {
		appLogger.Info("starting HTTP server", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("forced shutdown", zap.Error(err))
	}
	appLogger.Info("server stopped")
}
