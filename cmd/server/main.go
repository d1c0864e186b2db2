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
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"user-directory.backend/internal/config"
	"user-directory.backend/internal/domain/events"
	"user-directory.backend/internal/infrastructure/datasources/database"
	"user-directory.backend/internal/infrastructure/messaging"
	"user-directory.backend/internal/infrastructure/repositories"
	"user-directory.backend/internal/interfaces/http/handlers"
	"user-directory.backend/internal/interfaces/http/middleware"
	"user-directory.backend/internal/usecases"
	"user-directory.backend/pkg/crypto"
	"user-directory.backend/pkg/jwt"
	"user-directory.backend/pkg/logger"
	"user-directory.backend/pkg/redis"
)

var (
	loadDotenv   = godotenv.Load
	loadCfg      = config.Load
	initLog      = logger.Init
	openDB       = database.NewConnection
	migrateDB    = database.Migrate
	newRedis     = redis.NewClient
	dialRabbit   = messaging.Dial
	runServer    = func(srv *http.Server) error { return srv.ListenAndServe() }
	notifySignal = notifyShutdownSignals
)

func notifyShutdownSignals(c chan<- os.Signal) {
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
}

func main() {
	if err := runMainProcess(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess(args []string) error {
	flags := flag.NewFlagSet("server", flag.ContinueOnError)
	configPath := flags.String("config", "", "path to a TOML config file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := loadCfg(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	initLog(cfg.Server.Env)
	defer logger.Sync()
	ctx := context.Background()
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()
	logger.Info(ctx, "Connected to database", zap.String("driver", cfg.Database.Driver))

	if cfg.Database.AutoMigrate || cfg.Database.Rebuild {
		if err := migrateDB(db, cfg.Database.Rebuild); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info(ctx, "Database schema ready", zap.Bool("rebuild", cfg.Database.Rebuild))
	}

	creds, err := crypto.NewCredentials(cfg.Auth.AdminUser, cfg.Auth.AdminPassword, cfg.Auth.AdminPasswordHash)
	if err != nil {
		return fmt.Errorf("failed to prepare credentials: %w", err)
	}
	jwtService := jwt.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)

	// nil keeps the idempotency middleware in pass-through mode
	var idemStore middleware.IdempotencyStore
	if cfg.Redis.URL != "" {
		client, err := newRedis(cfg.Redis.URL, cfg.Redis.Password)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer client.Close()
		idemStore = redis.NewIdempotencyStore(client, cfg.Redis.IdempotencyTTL)
		logger.Info(ctx, "Redis initialized")
	}

	var publisher events.Publisher = messaging.NoopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		conn, err := dialRabbit(cfg.RabbitMQ.URL)
		if err != nil {
			return fmt.Errorf("failed to initialize rabbitmq: %w", err)
		}
		defer conn.Close()
		publisher = messaging.NewRabbitPublisher(conn, cfg.RabbitMQ.Exchange)
		logger.Info(ctx, "RabbitMQ publisher initialized", zap.String("exchange", cfg.RabbitMQ.Exchange))
	}

	userRepo := repositories.NewUserRepository(db)
	uow := repositories.NewUnitOfWork(db)

	metrics := middleware.NewMetrics()
	userUsecase := usecases.NewUserUsecase(userRepo, uow, publisher)
	userUsecase.SetRejectionObserver(metrics)

	stopCtx, stop := context.WithCancel(ctx)
	defer stop()
	var stopOnce sync.Once
	requestStop := func() { stopOnce.Do(stop) }

	r := newRouter(routeDeps{
		userHandler:         handlers.NewUserHandler(userUsecase),
		authHandler:         handlers.NewAuthHandler(jwtService),
		systemHandler:       handlers.NewSystemHandler(userUsecase, requestStop),
		metrics:             metrics,
		authMiddleware:      middleware.AuthMiddleware(creds, jwtService),
		basicAuthMiddleware: middleware.BasicAuthMiddleware(creds),
		idempotency:         middleware.IdempotencyMiddleware(idemStore),
		rateLimit:           middleware.RateLimitMiddleware(middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)),
	})

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		notifySignal(quit)
		select {
		case sig := <-quit:
			logger.Info(ctx, "Signal received", zap.String("signal", sig.String()))
			requestStop()
		case <-stopCtx.Done():
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "User directory starting", zap.String("addr", srv.Addr))
		serveErr <- runServer(srv)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-stopCtx.Done():
	}

	logger.Info(ctx, "Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	logger.Info(ctx, "Server stopped")
	return nil
}
