package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/registry/internal/auth"
	"github.com/MrSnakeDoc/registry/internal/config"
	"github.com/MrSnakeDoc/registry/internal/httpserver"
	"github.com/MrSnakeDoc/registry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/registry/internal/logger"
	"github.com/MrSnakeDoc/registry/internal/notify"
	"github.com/MrSnakeDoc/registry/internal/redis"
	"github.com/MrSnakeDoc/registry/internal/registry"
	"github.com/MrSnakeDoc/registry/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/registry/internal/store/redis"
	"github.com/MrSnakeDoc/registry/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	notifier    *notify.Notifier
	checker     *scheduler.HealthChecker
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Redis only carries the outbound event feed; without an address it stays off
	var (
		redisClient *goredis.Client
		events      *redisstore.EventStore
		publisher   notify.Publisher
	)
	if cfg.RedisAddr != "" {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		loggerClient.Info("Redis initialized successfully, event feed enabled")

		redisClient = client
		events = redisstore.NewEventStore(client, cfg.RecentEvents)
		publisher = events
	} else {
		loggerClient.Info("Redis not configured, event feed disabled")
	}

	store := registry.NewStore(registry.NewCredentials(cfg.AdminLogin, cfg.AdminPassword))
	notifier := notify.NewNotifier(store, publisher, cfg.NotifyTimeout, loggerClient)
	gate := auth.NewGate(store, notifier, loggerClient)

	// Create manual health check trigger channel
	healthcheckTrigger := make(chan struct{}, 1)

	checker := scheduler.NewHealthChecker(
		store,
		notifier,
		loggerClient,
		cfg.HealthcheckInterval,
		cfg.ProbeTimeout,
		cfg.ProbeConcurrency,
		healthcheckTrigger,
	)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:             loggerClient,
		StartTime:          time.Now(),
		Version:            version.Version,
		Commit:             version.Commit,
		BuildDate:          version.BuildDate,
		GoVersion:          version.GoVersion,
		TimeNow:            time.Now,
		AdminCIDRS:         cfg.AdminCIDRS,
		TrustProxy:         cfg.TrustProxy,
		Store:              store,
		Gate:               gate,
		HealthChecker:      checker,
		HealthcheckTrigger: healthcheckTrigger,
		Events:             events,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		notifier:    notifier,
		checker:     checker,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Registry v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Registry %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start health checker (first tick after one interval)
	if err := a.checker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health checker: %w", err)
	}
	a.logger.Info("health checker started",
		logger.Duration("interval", a.cfg.HealthcheckInterval),
		logger.Duration("probe_timeout", a.cfg.ProbeTimeout))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.checker.Stop()
		return err
	}

	// Stop scheduling ticks
	a.checker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	// Let in-flight probes and callbacks finish before dropping redis
	if err := a.checker.Wait(shutdownCtx); err != nil {
		a.logger.Warn("health checks still running at shutdown", logger.Error(err))
	}
	if err := a.notifier.Close(shutdownCtx); err != nil {
		a.logger.Warn("notifications still in flight at shutdown", logger.Error(err))
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	_ = a.logger.Sync()
	a.logger.Info("✅ Registry stopped cleanly")
	return nil
}
