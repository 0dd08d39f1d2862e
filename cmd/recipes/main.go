package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/recipe-share/internal/config"
	"github.com/sbilibin2017/recipe-share/internal/facades"
	"github.com/sbilibin2017/recipe-share/internal/jwt"
	"github.com/sbilibin2017/recipe-share/internal/logger"
	"github.com/sbilibin2017/recipe-share/internal/repositories"
	"github.com/sbilibin2017/recipe-share/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/sbilibin2017/recipe-share/docs"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title recipe-share API
// @version 1.0.0
// @description Recipe sharing service: recipes, likes, favorites and comments
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// run connects the stores, builds the services and serves HTTP until the
// context is cancelled or a shutdown signal arrives.
func run(ctx context.Context, cfg config.Config) error {
	// Initialize logger
	if err := logger.InitializeWithFile(cfg.LogLevel, logger.FileOptions{Path: cfg.LogFile}); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Log.Sync()
	logger.Log.Infof("Logger initialized with level %s", cfg.LogLevel)

	// Connect to PostgreSQL
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.PostgresDSN())
	if err != nil {
		return fmt.Errorf("PostgreSQL connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PostgresMaxOpenConns)
	db.SetMaxIdleConns(cfg.PostgresMaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("PostgreSQL ping failed: %w", err)
	}
	if err := repositories.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis connection error: %w", err)
	}
	defer rdb.Close()

	// Kafka and object storage are optional
	events := newKafkaWriter(cfg)
	if events != nil {
		defer events.Close()
	}
	images, err := newImageStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("object storage: %w", err)
	}

	tokens := jwt.New(jwt.WithSecretKey(cfg.JWTSecretKey), jwt.WithExpiration(cfg.JWTExp))
	app := newApp(db, rdb, tokens, events, images, cfg)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}

// newKafkaWriter returns nil when no brokers are configured.
func newKafkaWriter(cfg config.Config) services.KafkaWriter {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Log.Warn("KAFKA_BROKERS is empty, domain events are disabled")
		return nil
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
}

// newImageStore returns a nil interface when no bucket is configured, which
// makes uploads fail validation instead of panicking.
func newImageStore(ctx context.Context, cfg config.Config) (services.ImageStore, error) {
	if cfg.S3Bucket == "" {
		logger.Log.Warn("S3_BUCKET is empty, image uploads are disabled")
		return nil, nil
	}
	client, err := facades.NewS3Client(ctx, facades.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		return nil, err
	}
	return facades.NewImageStore(client, cfg.S3Bucket, cfg.S3PublicURL), nil
}
