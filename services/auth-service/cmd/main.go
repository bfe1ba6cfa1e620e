package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/config"
	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/handler"
	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/repository"
	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/session"
	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/usecase"
	"github.com/athleticspots/athletic-spots-api/shared/database"
	"github.com/athleticspots/athletic-spots-api/shared/mailer"
	"github.com/athleticspots/athletic-spots-api/shared/security"
	"github.com/athleticspots/athletic-spots-api/shared/utilities"
	"github.com/athleticspots/athletic-spots-api/shared/validator"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "auth-service").Logger()

	authServiceCfg := config.NewAuthServiceConfig(&logger)
	logger = setupLogger(authServiceCfg)

	if authServiceCfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              authServiceCfg.SentryDSN,
			Environment:      authServiceCfg.Environment,
			AttachStacktrace: true,
		}); err != nil {
			logger.Error().Err(err).Msg("failed to initialize sentry")
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoManager := database.NewMongoManager(database.MongoConfig{
		URI:            authServiceCfg.Mongo.URI,
		Database:       authServiceCfg.Mongo.Database,
		ConnectTimeout: authServiceCfg.Mongo.ConnectTimeout,
	}, &logger)

	db, err := mongoManager.Connect(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}

	userRepo := repository.NewUserMongoRepository(ctx, &logger, db)
	adminLoginRepo := repository.NewAdminLoginMongoRepository(ctx, &logger, db)
	errorLogRepo := repository.NewErrorLogMongoRepository(db)

	m := mailer.NewMailer(&logger)
	if err := m.Ping(); err != nil {
		logger.Warn().Err(err).Msg("SMTP server is not reachable, password reset emails will fail")
	}

	hasher := security.NewPasswordHasher()

	authUsecase := usecase.NewAuthUsecase(userRepo, adminLoginRepo, hasher, &logger)
	passwordResetUsecase := usecase.NewPasswordResetUsecase(userRepo, hasher, m, authServiceCfg, &logger)
	errorLogUsecase := usecase.NewErrorLogUsecase(errorLogRepo)

	sessions, err := session.NewManager(authServiceCfg, userRepo)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session manager")
	}

	v, err := validator.New()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create request validator")
	}

	clientIP, err := utilities.NewClientIPResolver(authServiceCfg.TrustedProxies)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse trusted proxies")
	}

	authHandler := handler.NewAuthHTTPHandler(
		authUsecase,
		passwordResetUsecase,
		errorLogUsecase,
		sessions,
		v,
		mongoManager,
		clientIP,
		&logger,
	)

	server := &http.Server{
		Addr:              authServiceCfg.Address,
		Handler:           handler.NewRouter(authHandler, &logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("address", server.Addr).Msg("auth service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down auth service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shut down HTTP server")
	}

	if err := mongoManager.Close(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to close MongoDB connection")
	}
}

// setupLogger builds the service logger: human-readable output in development,
// JSON otherwise.
func setupLogger(cfg *config.AuthServiceConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.IsProduction() {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return logger.Level(level).With().Timestamp().Str("service", "auth-service").Logger()
}
