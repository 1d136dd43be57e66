package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-autohub/actions"
	"github.com/goliatone/go-autohub/adapters/gocommand"
	"github.com/goliatone/go-autohub/adapters/gologger"
	hubcommand "github.com/goliatone/go-autohub/command"
	"github.com/goliatone/go-autohub/core"
	"github.com/goliatone/go-autohub/integrations/clockify"
	"github.com/goliatone/go-autohub/integrations/slack"
	"github.com/goliatone/go-autohub/llm"
	"github.com/goliatone/go-autohub/observability"
	"github.com/goliatone/go-autohub/query"
	"github.com/goliatone/go-autohub/ratelimit"
	"github.com/goliatone/go-autohub/scheduler"
	"github.com/goliatone/go-autohub/server"
	sqlstore "github.com/goliatone/go-autohub/store/sql"
	"github.com/goliatone/go-autohub/transport"
	"github.com/goliatone/go-autohub/webhooks"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "autohub: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	_, logger := gologger.Resolve(cfg.ServiceName, nil, nil)

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.ServiceName)
	}

	adapter := transport.NewRESTAdapter(nil)

	registry := core.NewIntegrationRegistry()

	clockifyClient := clockify.NewAPIClient(
		cfg.Clockify.BaseURL,
		cfg.Clockify.APIKey,
		cfg.Clockify.AddonToken,
		adapter,
		transport.NewRunner(clockify.IntegrationID, logger),
	)
	if err := registry.Register(clockify.NewIntegration(clockifyClient)); err != nil {
		return fmt.Errorf("register clockify: %w", err)
	}

	slackIntegration := slack.NewIntegration(
		cfg.Slack.BotToken,
		adapter,
		transport.NewRunner(slack.IntegrationID, logger),
	)
	if err := registry.Register(slackIntegration); err != nil {
		return fmt.Errorf("register slack: %w", err)
	}

	llmClient := llm.New(
		cfg.LLM.BaseURL,
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		adapter,
		transport.NewRunner("llm", logger),
	)

	resolver := actions.NewResolver(llmClient, registry.Names())
	resolver.Logger = logger
	resolver.Metrics = metrics

	dispatcher := core.NewDispatcher(registry)
	dispatcher.Logger = logger

	allowlist, err := webhooks.ParseAllowlist(cfg.Webhook.AllowedCIDRs)
	if err != nil {
		return fmt.Errorf("parse webhook allowlist: %w", err)
	}
	processor := webhooks.NewProcessor(
		webhooks.NewSharedSecretVerifier(cfg.Webhook.SharedSecret),
		allowlist,
		webhooks.NewEventCache(cfg.Webhook.CacheSize),
	)
	processor.Logger = logger
	processor.Metrics = metrics

	var activity *sqlstore.CachedActivityStore
	if cfg.Store.DSN != "" {
		client, store, err := sqlstore.Open(cfg.Store)
		if err != nil {
			return fmt.Errorf("open activity store: %w", err)
		}
		defer client.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure activity schema: %w", err)
		}

		cacheService, err := repositorycache.NewCacheService(repositorycache.DefaultConfig())
		if err != nil {
			return fmt.Errorf("new activity cache: %w", err)
		}
		activity, err = sqlstore.NewCachedActivityStore(store, cacheService)
		if err != nil {
			return fmt.Errorf("new cached activity store: %w", err)
		}
		dispatcher.Recorder = activity
		processor.Recorder = activity
	}

	queue := scheduler.NewMemoryQueue(scheduler.DefaultQueueDepth)
	defer queue.Close()

	worker := scheduler.NewWorker(queue, dispatcher, logger)
	workerDone := make(chan error, 1)
	go func() {
		workerDone <- worker.Run(ctx)
	}()

	cronScheduler := scheduler.New(queue, logger)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	var activityReader query.ActivityReader
	if activity != nil {
		activityReader = activity
	}
	if err := registerCommandBus(dispatcher, queue, cronScheduler, activityReader); err != nil {
		return fmt.Errorf("register command bus: %w", err)
	}

	limiter := ratelimit.New(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)

	srv := &server.Server{
		Logger:       logger,
		Processor:    processor,
		Registry:     registry,
		Dispatcher:   dispatcher,
		Resolver:     resolver,
		Scheduler:    cronScheduler,
		Limiter:      limiter,
		Metrics:      metrics,
		CORSOrigins:  cfg.CORS.Origins,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		ReadyChecks: []server.ReadyCheck{
			{Name: "clockify", Ready: clockifyClient.Configured},
			{Name: "llm", Ready: llmClient.Configured},
		},
	}
	srv.Activity = activityReader

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownSeconds)*time.Second,
	)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err.Error())
	}

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
	}
	return nil
}

// registerCommandBus exposes the hub operations on the go-command bus so
// embedders and queued jobs can invoke them by message type. Commands are
// mirrored into a go-job queue registry so queued executions resolve the
// same handlers.
func registerCommandBus(
	dispatcher core.ActionDispatcher,
	enqueuer core.ActionEnqueuer,
	actionScheduler hubcommand.ActionScheduler,
	activity query.ActivityReader,
) error {
	adapter := gocommand.NewRegistryAdapter(nil)
	if err := adapter.AddQueueResolver("jobs", jobqueuecommand.NewRegistry()); err != nil {
		return err
	}

	if _, err := gocommand.RegisterAndSubscribe(adapter, hubcommand.NewRunActionCommand(dispatcher)); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribe(adapter, hubcommand.NewEnqueueActionCommand(enqueuer)); err != nil {
		return err
	}
	if _, err := gocommand.RegisterAndSubscribe(adapter, hubcommand.NewScheduleActionCommand(actionScheduler)); err != nil {
		return err
	}
	if activity != nil {
		if _, err := gocommand.RegisterAndSubscribeQuery(adapter, query.NewListWebhookEventsQuery(activity)); err != nil {
			return err
		}
		if _, err := gocommand.RegisterAndSubscribeQuery(adapter, query.NewListActionRunsQuery(activity)); err != nil {
			return err
		}
	}
	return adapter.Initialize()
}

// loadConfig layers defaults, environment-provided values, and runtime
// overrides into a validated config.
func loadConfig(ctx context.Context) (core.Config, error) {
	defaults := core.DefaultConfig()

	provider := core.NewCfgxConfigProvider(core.EnvRawConfigLoader{})
	loaded, err := provider.Load(ctx, defaults)
	if err != nil {
		return core.Config{}, err
	}

	return core.GoOptionsResolver{}.Resolve(defaults, loaded, core.Config{})
}
