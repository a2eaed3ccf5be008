// Package agent wires the processing core together: storage, metadata,
// action registry, breakers, dedup, dead letter, saga orchestrator and the
// operator http server.
package agent

import (
	"context"
	"time"

	"github.com/sreenadh34/biznavigate-backend-sub002/action"
	"github.com/sreenadh34/biznavigate-backend-sub002/analytics"
	"github.com/sreenadh34/biznavigate-backend-sub002/breaker"
	"github.com/sreenadh34/biznavigate-backend-sub002/config"
	"github.com/sreenadh34/biznavigate-backend-sub002/dedup"
	"github.com/sreenadh34/biznavigate-backend-sub002/dlq"
	"github.com/sreenadh34/biznavigate-backend-sub002/engine"
	"github.com/sreenadh34/biznavigate-backend-sub002/flow"
	"github.com/sreenadh34/biznavigate-backend-sub002/logger"
	"github.com/sreenadh34/biznavigate-backend-sub002/metadata"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"github.com/sreenadh34/biznavigate-backend-sub002/persistence"
	"github.com/sreenadh34/biznavigate-backend-sub002/persistence/inmem"
	rd "github.com/sreenadh34/biznavigate-backend-sub002/persistence/redis"
	"github.com/sreenadh34/biznavigate-backend-sub002/rest"
	"github.com/sreenadh34/biznavigate-backend-sub002/telemetry"
	"go.uber.org/zap"
)

type Agent struct {
	Config        config.Config
	Collaborators action.Collaborators
	Leads         engine.LeadReader
	Dispatcher    engine.Dispatcher

	executionStore  persistence.ExecutionStore
	ledgerStore     persistence.LedgerStore
	deadLetterStore persistence.DeadLetterStore
	metadataStorage metadata.Storage

	metadataService metadata.Service
	registry        *action.Registry
	breakers        *breaker.Registry
	deduper         *dedup.Deduper
	deadLetter      *dlq.Service
	executor        *flow.Executor
	orchestrator    *engine.Orchestrator
	scheduler       interface {
		Start()
		Stop()
	}
	httpServer *rest.Server
}

func New(cfg config.Config, collaborators action.Collaborators, leads engine.LeadReader, dispatcher engine.Dispatcher) (*Agent, error) {
	a := &Agent{
		Config:        cfg,
		Collaborators: collaborators,
		Leads:         leads,
		Dispatcher:    dispatcher,
	}
	setup := []func() error{
		a.setupObservability,
		a.setupStorage,
		a.setupServices,
		a.setupOrchestrator,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupObservability() error {
	logger.Init(a.Config.LogLevel)
	if err := analytics.InitDataCollector(a.Config.AnalyticsConfig); err != nil {
		return err
	}
	return telemetry.RegisterViews()
}

func (a *Agent) setupStorage() error {
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_INMEM:
		a.executionStore = inmem.NewExecutionStore()
		a.ledgerStore = inmem.NewLedgerStore()
		a.deadLetterStore = inmem.NewDeadLetterStore()
		a.metadataStorage = inmem.NewMetadataStorage()
	default:
		conf := rd.Config{
			Addrs:     a.Config.RedisConfig.Addrs,
			Namespace: a.Config.RedisConfig.Namespace,
		}
		a.executionStore = rd.NewRedisExecutionStore(conf)
		a.ledgerStore = rd.NewRedisLedgerStore(conf)
		a.deadLetterStore = rd.NewRedisDeadLetterStore(conf)
		a.metadataStorage = rd.NewRedisMetadataStorage(conf)
	}
	return nil
}

func (a *Agent) setupServices() error {
	a.metadataService = metadata.NewService(a.metadataStorage)
	a.registry = action.NewRegistry()
	action.RegisterBuiltins(a.registry, a.Collaborators)
	a.breakers = breaker.NewRegistry(breaker.Config{
		FailureThreshold: a.Config.BreakerFailureThreshold,
		SuccessThreshold: a.Config.BreakerSuccessThreshold,
		OpenTimeout:      time.Duration(a.Config.BreakerOpenTimeoutSeconds) * time.Second,
		MonitoringWindow: time.Duration(a.Config.BreakerWindowSeconds) * time.Second,
	})
	a.deduper = dedup.NewDeduper(a.ledgerStore, time.Duration(a.Config.DedupTTLSeconds)*time.Second)
	delays := make([]time.Duration, 0, len(a.Config.RetryDelaySeconds))
	for _, s := range a.Config.RetryDelaySeconds {
		delays = append(delays, time.Duration(s)*time.Second)
	}
	a.deadLetter = dlq.NewService(a.deadLetterStore, a.Config.MaxRetryAttempts, delays)
	a.executor = flow.NewExecutor(a.registry, a.executionStore, a.Config.MaxIterations)
	return nil
}

func (a *Agent) setupOrchestrator() error {
	scheduler := engine.NewTickScheduler(func(ctx context.Context, res *model.AIResult) {
		if _, err := a.orchestrator.Process(ctx, res); err != nil {
			logger.Warn("retry attempt failed", zap.String("messageId", res.ProcessingID), zap.Error(err))
		}
	})
	a.scheduler = scheduler
	a.orchestrator = engine.NewOrchestrator(engine.OrchestratorConfig{
		Deduper:    a.deduper,
		DeadLetter: a.deadLetter,
		Breakers:   a.breakers,
		Registry:   a.registry,
		Metadata:   a.metadataService,
		Executor:   a.executor,
		Dispatcher: a.Dispatcher,
		Leads:      a.Leads,
		Scheduler:  scheduler,
	})
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.metadataService, a.deadLetter, a.breakers, a.orchestrator)
	return err
}

// Orchestrator exposes the saga entry point for the queue consumer hosting
// this process.
func (a *Agent) Orchestrator() *engine.Orchestrator {
	return a.orchestrator
}

func (a *Agent) Start() error {
	a.scheduler.Start()
	go func() {
		if err := a.httpServer.Start(); err != nil {
			logger.Error("http server stopped", zap.Error(err))
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	a.scheduler.Stop()
	return a.httpServer.Stop()
}
