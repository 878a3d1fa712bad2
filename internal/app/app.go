package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/bridgeworks/slackrelay/internal/config"
	"github.com/bridgeworks/slackrelay/internal/delivery"
	"github.com/bridgeworks/slackrelay/internal/directory"
	"github.com/bridgeworks/slackrelay/internal/httpserver"
	"github.com/bridgeworks/slackrelay/internal/httpserver/deps"
	"github.com/bridgeworks/slackrelay/internal/logger"
	"github.com/bridgeworks/slackrelay/internal/notify"
	"github.com/bridgeworks/slackrelay/internal/redis"
	"github.com/bridgeworks/slackrelay/internal/relay"
	"github.com/bridgeworks/slackrelay/internal/sources/bridgefile"
	redisstore "github.com/bridgeworks/slackrelay/internal/store/redis"
	"github.com/bridgeworks/slackrelay/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	queue       *relay.Queue
	worker      *relay.Worker
	redisClient *goredis.Client
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Optional statistics store. The relay runs fine without it, so a
	// connection failure degrades instead of aborting.
	var redisClient *goredis.Client
	var stats *redisstore.Stats
	if cfg.RedisAddr != "" {
		client, err := redis.Connect(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDialTimeout,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, loggerClient)
		if err != nil {
			loggerClient.Warnf("statistics store unavailable, continuing without: %v", err)
		} else {
			redisClient = client
			stats = redisstore.NewStats(client, loggerClient)
		}
	}

	endpoints, err := bridgefile.Endpoints(cfg.BridgesFile, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to load bridges: %v", err)
		os.Exit(1)
	}
	table, err := relay.NewTable(endpoints)
	if err != nil {
		loggerClient.Errorf("Invalid bridge configuration: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("endpoint table built", logger.Int("endpoints", table.Len()))

	var notifier relay.Notifier
	if cfg.SMTPAddr != "" {
		notifier = notify.NewMailer(cfg.SMTPAddr, cfg.MailFrom, cfg.MailTo, loggerClient)
	} else {
		loggerClient.Info("SMTP not configured, failure escalation by mail disabled")
	}

	cache := directory.NewCache(directory.NewSlackClient, loggerClient)
	queue := relay.NewQueue(cfg.QueueSize)

	workerCfg := relay.WorkerConfig{
		Table:      table,
		Queue:      queue,
		Cache:      cache,
		Deliverer:  delivery.New(loggerClient),
		Notifier:   notifier,
		Log:        loggerClient,
		SelfUserID: cfg.SelfUserID,
	}
	if stats != nil {
		workerCfg.Stats = stats
	}
	worker := relay.NewWorker(workerCfg)

	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		Queue:        queue,
		Table:        table,
		Notifier:     notifier,
		Stats:        stats,
		RedisClient:  redisClient,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		queue:       queue,
		worker:      worker,
		redisClient: redisClient,
	}
}

func (a *App) Run() error {
	a.logger.Infof("Starting slackrelay v%s on %s", version.Version, a.cfg.ListenAddr)
	a.logger.Infof("slackrelay %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.worker.Start()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	// Close the queue first so late producers get a clean 503, then
	// let the worker drain what is already queued.
	a.queue.Stop()
	select {
	case <-a.worker.Done():
		a.logger.Info("relay worker drained and stopped")
	case <-time.After(a.cfg.ShutdownTimeout):
		a.logger.Warn("relay worker did not drain in time, abandoning queue")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		}
	}

	a.logger.Info("slackrelay stopped cleanly")
	return nil
}
