package syncer

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/omarfadal/suuqpos-backend/internal/outbox"
	"github.com/omarfadal/suuqpos-backend/pkg/db/models"
	"github.com/omarfadal/suuqpos-backend/pkg/enums"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
	"github.com/omarfadal/suuqpos-backend/pkg/logger"
	"github.com/omarfadal/suuqpos-backend/pkg/metrics"
)

// Trigger labels why a pass started.
const (
	TriggerStartup  = "startup"
	TriggerInterval = "interval"
	TriggerNotify   = "notify"
	TriggerManual   = "manual"
)

// Applier replays one queue row against the remote store.
type Applier interface {
	Apply(ctx context.Context, entry models.OutboxEntry) error
}

// OnlineFunc reports whether the remote store is reachable right now.
type OnlineFunc func(ctx context.Context) bool

// Engine drains the outbox toward the remote store. One pass runs at a time
// per process; overlapping triggers are skipped, never queued.
type Engine struct {
	queue    *outbox.Repository
	applier  Applier
	logg     *logger.Logger
	metrics  *metrics.SyncMetrics
	online   OnlineFunc
	interval time.Duration
	maxBatch int

	inFlight atomic.Bool
	notify   chan struct{}
	stop     chan struct{}
	done     chan struct{}
}

// EngineParams wires an Engine.
type EngineParams struct {
	Queue    *outbox.Repository
	Applier  Applier
	Logger   *logger.Logger
	Metrics  *metrics.SyncMetrics
	Online   OnlineFunc
	Interval time.Duration
	MaxBatch int
}

// NewEngine builds a sync engine. Interval and MaxBatch fall back to 15s and
// 10 when unset.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Queue == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if params.Applier == nil {
		return nil, fmt.Errorf("remote applier required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	maxBatch := params.MaxBatch
	if maxBatch <= 0 {
		maxBatch = 10
	}
	return &Engine{
		queue:    params.Queue,
		applier:  params.Applier,
		logg:     params.Logger,
		metrics:  params.Metrics,
		online:   params.Online,
		interval: interval,
		maxBatch: maxBatch,
		notify:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start launches the drain loop: an immediate pass, then one per interval
// tick or notify signal. Returns after the loop goroutine is running.
func (e *Engine) Start(ctx context.Context) {
	go func() {
		defer close(e.done)

		e.RunPass(ctx, TriggerStartup)

		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		for {
			select {
			case <-e.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.RunPass(ctx, TriggerInterval)
			case <-e.notify:
				e.RunPass(ctx, TriggerNotify)
			}
		}
	}()
}

// Stop shuts the loop down and waits for an in-flight pass to finish.
func (e *Engine) Stop() {
	close(e.stop)
	<-e.done
}

// Notify requests an out-of-band pass, typically on connectivity regained.
// Non-blocking; coalesces with a pending request.
func (e *Engine) Notify() {
	select {
	case e.notify <- struct{}{}:
	default:
	}
}

// PassResult summarizes one drain pass.
type PassResult struct {
	Skipped        bool
	Applied        int
	AlreadyApplied int
	Failed         int
	Deferred       int
}

// RunPass drains up to maxBatch pending rows, newest-first. A row that hits
// transient remote unavailability stays PENDING and ends the pass; a
// non-retryable error parks the row as FAILED and the pass moves on. A pass
// already in flight, or an offline device, skips without touching the queue.
func (e *Engine) RunPass(ctx context.Context, trigger string) PassResult {
	if !e.inFlight.CompareAndSwap(false, true) {
		e.metrics.IncSkipped()
		return PassResult{Skipped: true}
	}
	defer e.inFlight.Store(false)

	if e.online != nil && !e.online(ctx) {
		e.metrics.IncSkipped()
		e.debug(ctx, trigger, "sync pass skipped, device offline")
		return PassResult{Skipped: true}
	}

	started := time.Now()
	defer func() { e.metrics.ObservePass(trigger, time.Since(started)) }()

	rows, err := e.queue.FetchPending(ctx, enums.OutboxEventSale, e.maxBatch)
	if err != nil {
		e.warn(ctx, trigger, "fetching pending queue rows failed", err)
		return PassResult{}
	}
	if len(rows) == 0 {
		return PassResult{}
	}

	var result PassResult
	for _, row := range rows {
		if err := e.queue.MarkAttempt(ctx, row.ID); err != nil {
			e.warn(ctx, trigger, "marking sync attempt failed", err)
		}

		applyErr := e.applier.Apply(ctx, row)
		switch {
		case applyErr == nil:
			if err := e.queue.MarkSynced(ctx, row.ID); err != nil {
				e.warn(ctx, trigger, "marking row synced failed", err)
			}
			result.Applied++
			e.metrics.IncApplied(string(row.EventType))

		case pkgerrors.CodeOf(applyErr) == pkgerrors.CodeAlreadyApplied:
			// The remote marker proves the fact landed; same as success.
			if err := e.queue.MarkSynced(ctx, row.ID); err != nil {
				e.warn(ctx, trigger, "marking row synced failed", err)
			}
			result.Applied++
			result.AlreadyApplied++
			e.metrics.IncAlreadyApplied()

		case pkgerrors.IsRetryable(applyErr):
			// Remote is unreachable; the rest of the batch would fail the
			// same way. Leave everything PENDING for the next pass.
			result.Deferred = len(rows) - result.Applied - result.Failed
			e.warn(ctx, trigger, "remote unavailable, deferring pass", applyErr)
			return result

		default:
			if err := e.queue.MarkFailed(ctx, row.ID, applyErr); err != nil {
				e.warn(ctx, trigger, "marking row failed failed", err)
			}
			result.Failed++
			e.metrics.IncFailed(string(row.EventType), string(pkgerrors.CodeOf(applyErr)))
			e.warn(ctx, trigger, "queue row parked as failed", applyErr)
		}
	}

	e.logPass(ctx, trigger, result)
	return result
}

func (e *Engine) logPass(ctx context.Context, trigger string, result PassResult) {
	if e.logg == nil || result.Applied == 0 && result.Failed == 0 {
		return
	}
	ctx = e.logg.WithFields(ctx, map[string]any{
		"trigger":         trigger,
		"applied":         result.Applied,
		"already_applied": result.AlreadyApplied,
		"failed":          result.Failed,
	})
	e.logg.Info(ctx, "sync pass finished")
}

func (e *Engine) debug(ctx context.Context, trigger, msg string) {
	if e.logg == nil {
		return
	}
	ctx = e.logg.WithField(ctx, "trigger", trigger)
	e.logg.Debug(ctx, msg)
}

func (e *Engine) warn(ctx context.Context, trigger, msg string, err error) {
	if e.logg == nil {
		return
	}
	ctx = e.logg.WithFields(ctx, map[string]any{"trigger": trigger, "error": err.Error()})
	e.logg.Warn(ctx, msg)
}
