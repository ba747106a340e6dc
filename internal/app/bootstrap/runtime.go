package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	cacheadapter "github.com/lumengallery/auth-service/internal/adapters/cache"
	eventadapter "github.com/lumengallery/auth-service/internal/adapters/events"
	httpadapter "github.com/lumengallery/auth-service/internal/adapters/http"
	"github.com/lumengallery/auth-service/internal/adapters/mail"
	"github.com/lumengallery/auth-service/internal/adapters/postgres"
	"github.com/lumengallery/auth-service/internal/adapters/security"
	"github.com/lumengallery/auth-service/internal/application"
	"github.com/lumengallery/auth-service/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	outbox     *eventadapter.OutboxWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping authentication service", "http_port", cfg.HTTPPort)

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := pool.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	repos := postgres.NewRepositories(pool)
	tokenSigner, err := security.NewJWTSigner(cfg.JWTSecret)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init jwt signer: %w", err)
	}

	// Google sign-in stays disabled unless a client id is configured.
	var oidcVerifier ports.OIDCVerifier
	if cfg.OIDCGoogleClientID != "" {
		verifier, verErr := security.NewGoogleVerifier(security.GoogleVerifierConfig{
			IssuerURL:    cfg.OIDCGoogleIssuerURL,
			ClientID:     cfg.OIDCGoogleClientID,
			ClientSecret: cfg.OIDCGoogleClientSecret,
			Scopes:       cfg.OIDCGoogleScopes,
			HTTPClient:   &http.Client{Timeout: cfg.OIDCHTTPTimeout},
		})
		if verErr != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init google verifier: %w", verErr)
		}
		oidcVerifier = verifier
	}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			DefaultRole:        cfg.DefaultRole,
			TokenTTL:           cfg.TokenTTL,
			FederatedTokenTTL:  cfg.FederatedTokenTTL,
			OTPTTL:             cfg.OTPTTL,
			AdminBootstrapCode: cfg.AdminBootstrapCode,
			ClientURL:          cfg.ClientURL,
		},
		Accounts:      repos.Accounts,
		LoginAttempts: repos.LoginAttempts,
		Outbox:        repos.Outbox,
		Codes:         cacheadapter.NewRedisCodeStore(redisClient),
		OIDCState:     cacheadapter.NewRedisOIDCStateStore(redisClient),
		OIDCVerifier:  oidcVerifier,
		Notifier: mail.NewSMTPNotifier(mail.Config{
			Host:     cfg.SMTPHost,
			Port:     strconv.Itoa(cfg.SMTPPort),
			From:     cfg.SMTPFrom,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			Timeout:  cfg.SMTPTimeout,
		}),
		Hasher:      security.NewBcryptHasher(cfg.BcryptCost),
		TokenSigner: tokenSigner,
	})

	handler := httpadapter.NewHandler(svc)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	outbox := eventadapter.NewOutboxWorker(logger, repos.Outbox, eventadapter.NewLoggingPublisher(logger),
		eventadapter.WorkerSettings{
			PollInterval: cfg.OutboxPollInterval,
			BatchSize:    cfg.OutboxBatchSize,
			ClaimTTL:     cfg.OutboxClaimTTL,
			MaxRetries:   cfg.OutboxMaxRetries,
		})

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		outbox:     outbox,
		cleanupFn: func(ctx context.Context) {
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("outbox worker started")
	err := r.outbox.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return nil
}
