package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/cache"
	eventadapter "github.com/Adelipop59/super-try-api-sub002/internal/adapters/events"
	grpcadapter "github.com/Adelipop59/super-try-api-sub002/internal/adapters/grpc"
	httpadapter "github.com/Adelipop59/super-try-api-sub002/internal/adapters/http"
	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/memory"
	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/observability"
	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/payments"
	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/postgres"
	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/rules"
	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/security"
	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/storage"
	"github.com/Adelipop59/super-try-api-sub002/internal/application"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	service    *application.Service
	db         *gorm.DB
	httpServer *http.Server
	grpcServer *grpcadapter.Server
	outbox     *eventadapter.OutboxWorker
	consumer   *eventadapter.ConsumerWorker
	sweeper    *eventadapter.SweepWorker
	telemetry  *observability.Provider
	ready      func(ctx context.Context) error
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	var closers []func(context.Context)
	cleanup := func(ctx context.Context) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i](ctx)
		}
	}
	fail := func(err error) (*Runtime, error) {
		cleanup(context.Background())
		return nil, err
	}

	telemetry, err := observability.Setup(ctx, observability.Config{
		ServiceName:    cfg.ServiceID,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
		SampleRate:     cfg.TraceSampleRate,
	})
	if err != nil {
		return nil, err
	}
	closers = append(closers, func(ctx context.Context) { _ = telemetry.Shutdown(ctx) })

	deps := application.Dependencies{Config: application.Config{
		ServiceName:          cfg.ServiceID,
		TokenTTL:             cfg.TokenTTL,
		LoginMaxAttempts:     cfg.LoginMaxAttempts,
		LoginLockoutWindow:   cfg.LoginLockoutWindow,
		IdempotencyTTL:       cfg.IdempotencyTTL,
		EventDedupTTL:        cfg.EventDedupTTL,
		CampaignCacheTTL:     cfg.CampaignCacheTTL,
		CommissionPercent:    cfg.CommissionPercent,
		PaymentsEnabled:      cfg.PaymentsEnabled,
		Currency:             cfg.Currency,
		SessionPendingExpiry: cfg.SessionPendingExpiry,
		LogRetention:         cfg.LogRetention,
		UploadURLTTL:         cfg.UploadURLTTL,
		StripeRefreshURL:     cfg.StripeRefreshURL,
		StripeReturnURL:      cfg.StripeReturnURL,
		StripeDefaultCountry: cfg.StripeDefaultCountry,
	}}

	var (
		db     *gorm.DB
		checks []func(context.Context) error
	)
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		repos := memory.NewRepositories()
		deps.Users, deps.Categories, deps.Products = repos.Users, repos.Categories, repos.Products
		deps.Campaigns, deps.Sessions, deps.BonusTasks = repos.Campaigns, repos.Sessions, repos.BonusTasks
		deps.Disputes, deps.Wallets, deps.Withdrawals = repos.Disputes, repos.Wallets, repos.Withdrawals
		deps.Reviews, deps.Notifications, deps.SystemLogs = repos.Reviews, repos.Notifications, repos.SystemLogs
		deps.Outbox, deps.EventDedup, deps.Idempotency = repos.Outbox, repos.EventDedup, repos.Idempotency
		logger.WarnContext(ctx, "running on in-memory storage, data is lost on restart",
			"module", "bootstrap", "layer", "app", "operation", "select_storage", "outcome", "success")
	default:
		db, err = postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
		if err != nil {
			return fail(err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func(context.Context) { _ = sqlDB.Close() })
		if cfg.AutoMigrate {
			if err := postgres.RunMigrations(ctx, db); err != nil {
				return fail(err)
			}
		}
		repos := postgres.NewRepositories(db)
		deps.Users, deps.Categories, deps.Products = repos.Users, repos.Categories, repos.Products
		deps.Campaigns, deps.Sessions, deps.BonusTasks = repos.Campaigns, repos.Sessions, repos.BonusTasks
		deps.Disputes, deps.Wallets, deps.Withdrawals = repos.Disputes, repos.Wallets, repos.Withdrawals
		deps.Reviews, deps.Notifications, deps.SystemLogs = repos.Reviews, repos.Notifications, repos.SystemLogs
		deps.Outbox, deps.EventDedup, deps.Idempotency = repos.Outbox, repos.EventDedup, repos.Idempotency
		checks = append(checks, func(ctx context.Context) error { return postgres.Ping(ctx, db) })
	}

	if cfg.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func(context.Context) { _ = redisClient.Close() })
		deps.Cache = cache.NewRedisCache(redisClient)
		checks = append(checks, func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	} else {
		deps.Cache = cache.NewMemoryCache()
	}

	var signer *security.JWTSigner
	if cfg.JWTPrivateKey != "" {
		signer, err = security.NewJWTSigner(cfg.JWTKeyID, cfg.JWTPrivateKey, cfg.JWTPublicKey)
	} else {
		logger.WarnContext(ctx, "JWT_PRIVATE_KEY not set, using an ephemeral signing key",
			"module", "bootstrap", "layer", "app", "operation", "configure_tokens", "outcome", "degraded")
		signer, err = security.NewEphemeralJWTSigner(cfg.JWTKeyID)
	}
	if err != nil {
		return fail(fmt.Errorf("configure jwt signer: %w", err))
	}
	deps.Tokens = signer
	deps.Hasher = security.NewBcryptHasher(cfg.BcryptCost)

	if cfg.StripeSecretKey != "" {
		gateway, err := payments.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
		if err != nil {
			return fail(err)
		}
		deps.Payments = gateway
	} else {
		logger.WarnContext(ctx, "STRIPE_SECRET_KEY not set, using the payment sandbox",
			"module", "bootstrap", "layer", "app", "operation", "configure_payments", "outcome", "degraded")
		deps.Payments = payments.NewSandboxGateway(cfg.StripeWebhookSecret)
	}

	if cfg.S3Bucket != "" {
		uploads, err := storage.NewS3Uploads(ctx, storage.S3Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			PublicBaseURL: cfg.S3PublicBaseURL,
			Prefix:        cfg.S3Prefix,
		})
		if err != nil {
			return fail(err)
		}
		deps.Storage = uploads
	}

	evaluator, err := rules.NewCELEvaluator()
	if err != nil {
		return fail(fmt.Errorf("configure rule evaluator: %w", err))
	}
	deps.Rules = evaluator

	service := application.NewService(deps)

	publisher, consumerAdapter, brokerClosers := buildEventTransport(ctx, logger, cfg, service)
	for _, c := range brokerClosers {
		closers = append(closers, func(context.Context) { _ = c.Close() })
	}

	ready := func(ctx context.Context) error {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	handler := httpadapter.NewHandler(service, httpadapter.Options{
		JWKs:           signer.PublicJWKs,
		Ready:          ready,
		Tracer:         telemetry.Tracer(),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		service:    service,
		db:         db,
		httpServer: httpServer,
		grpcServer: grpcadapter.NewServer(logger, ready),
		outbox:     eventadapter.NewOutboxWorker(logger, deps.Outbox, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize),
		consumer:   eventadapter.NewConsumerWorker(logger, consumerAdapter, service, cfg.ConsumerPollInterval),
		sweeper:    eventadapter.NewSweepWorker(logger, service, cfg.SweepInterval, cfg.AutoWithdrawals, cfg.WithdrawalBatchSize),
		telemetry:  telemetry,
		ready:      ready,
		cleanupFn:  cleanup,
	}, nil
}

// buildEventTransport picks Kafka when brokers are configured. Without a
// broker the relay hands notifiable events straight to the service.
func buildEventTransport(ctx context.Context, logger *slog.Logger, cfg Config, service *application.Service) (ports.EventPublisher, eventadapter.Consumer, []io.Closer) {
	fallbackPublisher := eventadapter.NewDispatchPublisher(logger, service, domain.NotifiableEvents)
	if len(cfg.KafkaBrokers) == 0 {
		return fallbackPublisher, eventadapter.NewNoopConsumer(), nil
	}
	var (
		publisher ports.EventPublisher  = fallbackPublisher
		consumer  eventadapter.Consumer = eventadapter.NewNoopConsumer()
		closers   []io.Closer
	)
	kafkaPublisher, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, nil)
	if err != nil {
		logger.WarnContext(ctx, "kafka publisher disabled, dispatching in process", "error", err)
	} else {
		publisher = kafkaPublisher
		closers = append(closers, kafkaPublisher)
	}
	kafkaConsumer, err := eventadapter.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, domain.NotifiableEvents)
	if err != nil {
		logger.WarnContext(ctx, "kafka consumer disabled, using noop consumer", "error", err)
	} else {
		consumer = kafkaConsumer
		closers = append(closers, kafkaConsumer)
	}
	return publisher, consumer, closers
}

func Build(ctx context.Context, configPath string) (*Runtime, error) {
	return NewRuntime(ctx, configPath)
}

func (r *Runtime) Service() *application.Service {
	return r.service
}

func (r *Runtime) Config() Config {
	return r.cfg
}

// Migrate applies the SQL migrations. It is a no-op on memory storage.
func (r *Runtime) Migrate(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return postgres.RunMigrations(ctx, r.db)
}

func (r *Runtime) Close(ctx context.Context) {
	r.cleanupFn(ctx)
}

// RunAPI serves HTTP and gRPC until SIGINT/SIGTERM. On memory storage the
// background workers run in the same process since nothing else shares state.
func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		r.cleanupFn(context.Background())
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return r.grpcServer.Serve(lis) })
	g.Go(func() error { return ignoreCanceled(r.grpcServer.WatchReadiness(gctx, 10*time.Second)) })
	if r.cfg.StorageDriver == StorageDriverMemory {
		r.startWorkers(gctx, g)
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = r.httpServer.Shutdown(shutdownCtx)
		r.grpcServer.GracefulStop()
		return nil
	})

	r.logger.InfoContext(ctx, "api started",
		"module", "bootstrap", "layer", "app", "operation", "run_api", "outcome", "success",
		"http_port", r.cfg.HTTPPort, "grpc_port", r.cfg.GRPCPort, "storage", r.cfg.StorageDriver,
	)
	err = g.Wait()
	if err != nil {
		r.logger.ErrorContext(ctx, "runtime failure", "module", "bootstrap", "layer", "app", "operation", "run_api", "outcome", "failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return err
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	r.startWorkers(gctx, g)
	r.logger.InfoContext(ctx, "worker started",
		"module", "bootstrap", "layer", "app", "operation", "run_worker", "outcome", "success",
		"storage", r.cfg.StorageDriver, "auto_withdrawals", r.cfg.AutoWithdrawals,
	)
	err := g.Wait()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return err
}

func (r *Runtime) startWorkers(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error { return ignoreCanceled(r.outbox.Run(ctx)) })
	g.Go(func() error { return ignoreCanceled(r.consumer.Run(ctx)) })
	g.Go(func() error { return ignoreCanceled(r.sweeper.Run(ctx)) })
}

func ignoreCanceled(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
