package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/olaysco/ecomm-api/cache"
	"github.com/olaysco/ecomm-api/common/logger"
	"github.com/olaysco/ecomm-api/common/middleware"
	"github.com/olaysco/ecomm-api/controllers"
	"github.com/olaysco/ecomm-api/database"
	awspkg "github.com/olaysco/ecomm-api/pkg/aws"
	"github.com/olaysco/ecomm-api/repository"
	"github.com/olaysco/ecomm-api/routes"
	"github.com/olaysco/ecomm-api/services"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	serviceName     = "product-catalog"
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 1 << 20
)

func main() {
	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()

	cfg, err := LoadConfig()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	ctx := context.Background()
	awsCfg, awsErr := awspkg.LoadAWSConfig(ctx)

	log := initLogger(ctx, cfg, awsCfg, awsErr)
	defer log.Sync()
	zap.ReplaceGlobals(log)

	if awsErr != nil {
		log.Warn("AWS config unavailable, AWS integrations disabled", zap.Error(awsErr))
	}

	repo, mongoClient, err := buildRepository(ctx, cfg, awsCfg, log)
	if err != nil {
		log.Fatal("Failed to initialise product repository", zap.Error(err))
	}
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Warn("Failed to ensure product indexes", zap.Error(err))
	}

	var productCache services.ProductCache
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Warn("Redis unavailable, product cache disabled", zap.Error(err))
		} else {
			productCache = cache.NewProductCache(redisClient, cfg.CacheTTL, log)
		}
	}

	var publisher awspkg.SNSPublisher
	var metrics *awspkg.MetricsClient
	var recorder services.MetricsRecorder
	if awsErr == nil {
		if cfg.ProductTopicArn != "" {
			publisher = awspkg.NewSNSClient(awsCfg, log)
		}
		metrics = awspkg.NewMetricsClient(awsCfg)
		if metrics.IsEnabled() {
			recorder = metrics
		}
	}

	productService := services.NewProductService(repo, productCache, publisher, cfg.ProductTopicArn, recorder, log)
	productController := controllers.NewProductController(productService, cfg.BaseURL)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	routerCtx, stopRouter := context.WithCancel(ctx)
	defer stopRouter()
	r := newRouter(routerCtx, cfg, productController, metrics, log)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info("Product API starting",
			zap.String("port", cfg.Port),
			zap.String("driver", cfg.DBDriver),
			zap.Bool("cache", productCache != nil),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down Product API...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis", zap.Error(err))
		}
	}
	if err := database.CloseMongo(mongoClient); err != nil {
		log.Error("Failed to close MongoDB", zap.Error(err))
	}

	log.Info("Product API stopped gracefully")
}

// initLogger builds the zap logger, tee'd to CloudWatch Logs when enabled.
func initLogger(ctx context.Context, cfg *Config, awsCfg sdkaws.Config, awsErr error) *zap.Logger {
	if cfg.CloudWatchEnabled && awsErr == nil {
		sink, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, serviceName)
		if err == nil {
			if log, err := logger.InitializeWithWriter(cfg.Env, sink); err == nil {
				return log
			}
		}
	}

	log, err := logger.Initialize(cfg.Env)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return log
}

func buildRepository(ctx context.Context, cfg *Config, awsCfg sdkaws.Config, log *zap.Logger) (repository.ProductRepo, *mongo.Client, error) {
	switch cfg.DBDriver {
	case DriverDynamoDB:
		return repository.NewDynamoAdapter(database.NewDynamoClient(awsCfg), cfg.DynamoTable), nil, nil
	case DriverMemory:
		log.Warn("Using in-memory product repository, data is not persisted")
		return repository.NewMemoryRepository(), nil, nil
	default:
		client, db, err := database.ConnectMongo(ctx, cfg.DBURI, cfg.DBName, log)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewProductRepository(db), client, nil
	}
}

func newRouter(ctx context.Context, cfg *Config, pc *controllers.ProductController, metrics *awspkg.MetricsClient, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.SecurityHeaders(),
		middleware.CORSMiddleware(cfg.AllowedOrigins),
		middleware.RateLimitMiddleware(ctx, cfg.RateLimitPerMinute),
		middleware.MetricsMiddleware(metrics, serviceName),
		middleware.RequestTimeout(requestTimeout),
		middleware.JSONBodyGuard(maxBodyBytes),
	)

	routes.RegisterRoutes(r, pc)
	return r
}
