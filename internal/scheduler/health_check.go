package scheduler

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/registry/internal/domain"
	"github.com/MrSnakeDoc/registry/internal/logger"
)

const (
	// DefaultProbeConcurrency bounds in-flight probes within one tick
	DefaultProbeConcurrency = 32
)

// ServiceStore is the part of the registry store the health checker uses.
type ServiceStore interface {
	AcceptedServices() []domain.Service
	SetAvailable(id string, available bool) bool
}

// EventNotifier receives availability transitions. May be nil.
type EventNotifier interface {
	Notify(kind domain.EventKind, subject domain.Service)
}

// TickResult summarizes one health-check pass.
type TickResult struct {
	Probed    int
	Available int
	Changed   int
	Duration  time.Duration
}

// HealthChecker periodically probes accepted services and records their
// availability in the store.
//
// Ticks fire on a fixed period regardless of how long the previous one took,
// so ticks may overlap. Each tick holds the store only to snapshot and to
// commit individual results.
type HealthChecker struct {
	store         ServiceStore
	notifier      EventNotifier
	client        *http.Client
	probeTimeout  time.Duration
	concurrency   int
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}

	runMu   sync.Mutex // guards stopped and running.Add
	stopped bool
	running sync.WaitGroup

	mu       sync.RWMutex
	lastTick time.Time
	lastRun  TickResult
	ticks    atomic.Int64
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(
	store ServiceStore,
	notifier EventNotifier,
	log logger.Logger,
	interval time.Duration,
	probeTimeout time.Duration,
	concurrency int,
	manualTrigger chan struct{},
) *HealthChecker {
	if concurrency <= 0 {
		concurrency = DefaultProbeConcurrency
	}

	return &HealthChecker{
		store:         store,
		notifier:      notifier,
		client:        domain.NewCheckClient(probeTimeout),
		probeTimeout:  probeTimeout,
		concurrency:   concurrency,
		logger:        log.With(logger.Component("healthcheck")),
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic health-check loop
func (hc *HealthChecker) Start(ctx context.Context) error {
	if hc.interval <= 0 {
		return fmt.Errorf("health check interval must be > 0, got %v", hc.interval)
	}

	ticker := time.NewTicker(hc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				hc.spawn()
			case <-hc.manualTrigger:
				hc.logger.Info("manual health check triggered")
				hc.spawn()
			case <-hc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops scheduling new ticks. Ticks already running finish on their own.
func (hc *HealthChecker) Stop() {
	hc.runMu.Lock()
	defer hc.runMu.Unlock()

	if hc.stopped {
		return
	}
	hc.stopped = true
	close(hc.stopCh)
}

// Wait blocks until running ticks have finished or ctx is done.
// Call it after Stop.
func (hc *HealthChecker) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		hc.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// spawn runs a tick without delaying the next one. Ticks are detached from
// the loop context; each check is bounded by its own timeout.
func (hc *HealthChecker) spawn() {
	hc.runMu.Lock()
	defer hc.runMu.Unlock()

	if hc.stopped {
		return
	}
	hc.running.Add(1)
	go func() {
		defer hc.running.Done()
		hc.Tick(context.Background())
	}()
}

// Tick snapshots accepted services, probes them concurrently and commits
// each result. A failed probe only marks its own service unavailable.
func (hc *HealthChecker) Tick(ctx context.Context) TickResult {
	start := time.Now()
	services := hc.store.AcceptedServices()

	var available, changed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(hc.concurrency)
	for _, svc := range services {
		svc := svc
		g.Go(func() error {
			ok := hc.probe(ctx, svc)
			if ctx.Err() != nil {
				// A cancelled check says nothing about the service
				return nil
			}
			if ok {
				available.Add(1)
			}

			// The service may have been disabled since the snapshot; the
			// store ignores identifiers it no longer knows.
			if hc.store.SetAvailable(svc.Identifier, ok) {
				changed.Add(1)
				svc.Available = ok
				hc.logger.Info("service availability changed",
					logger.String("identifier", svc.Identifier),
					logger.String("address", svc.Address),
					logger.Bool("available", ok))
				if hc.notifier != nil {
					hc.notifier.Notify(domain.EventAvailabilityChanged, svc)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	result := TickResult{
		Probed:    len(services),
		Available: int(available.Load()),
		Changed:   int(changed.Load()),
		Duration:  time.Since(start),
	}

	hc.mu.Lock()
	hc.lastTick = start
	hc.lastRun = result
	hc.mu.Unlock()
	hc.ticks.Add(1)

	hc.logger.Info("health check completed",
		logger.Int("probed", result.Probed),
		logger.Int("available", result.Available),
		logger.Int("changed", result.Changed),
		logger.Duration("duration", result.Duration))

	return result
}

func (hc *HealthChecker) probe(ctx context.Context, svc domain.Service) bool {
	ctx, cancel := context.WithTimeout(ctx, hc.probeTimeout)
	defer cancel()

	if err := domain.CheckHealth(ctx, hc.client, svc); err != nil {
		hc.logger.Debug("probe failed",
			logger.String("identifier", svc.Identifier),
			logger.String("address", svc.Address),
			logger.Error(err))
		return false
	}
	return true
}

// LastTick returns when the most recent completed tick started and its summary.
func (hc *HealthChecker) LastTick() (time.Time, TickResult) {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	return hc.lastTick, hc.lastRun
}

// Ticks returns the number of completed ticks.
func (hc *HealthChecker) Ticks() int64 {
	return hc.ticks.Load()
}
