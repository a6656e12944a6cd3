package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/platform/logging"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

const (
	syncInstrumentationName = "github.com/jsamuelsen/quotesync/internal/app"

	syncFlightKey = "sync"

	defaultFetchTimeout = 30 * time.Second
)

// ErrNoConflict is returned by Resolve when no conflict is pending.
var ErrNoConflict = domain.NewNotFoundError("sync conflict", "")

// SyncState is the coordinator's position in the sync state machine.
type SyncState string

const (
	// StateIdle means no sync is in flight and no conflict is pending.
	StateIdle SyncState = "idle"

	// StateFetching means a remote fetch is outstanding.
	StateFetching SyncState = "fetching"

	// StateDiverged means a merged collection is waiting for a decision.
	StateDiverged SyncState = "diverged"
)

// SyncOutcome reports how a successful sync ended.
type SyncOutcome string

const (
	// OutcomeNoChange means the remote collection added nothing new.
	OutcomeNoChange SyncOutcome = "no_change"

	// OutcomeConflictDetected means a conflict record is now pending.
	OutcomeConflictDetected SyncOutcome = "conflict_detected"
)

// Decision is the user's answer to a pending conflict.
type Decision string

const (
	// AcceptRemote commits the proposed merged collection.
	AcceptRemote Decision = "accept"

	// KeepLocal discards the proposed collection.
	KeepLocal Decision = "keep"
)

// ParseDecision converts user input into a Decision.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(s); d {
	case AcceptRemote, KeepLocal:
		return d, nil
	default:
		return "", domain.NewValidationErrorWithValue("decision", "must be one of: accept, keep", s)
	}
}

// ConflictRecord holds a proposed merged collection awaiting a decision.
// It is never persisted.
type ConflictRecord struct {
	ID       string            `json:"id"`
	Proposed domain.Collection `json:"proposed"`
	// Previous is the local snapshot the merge started from. Nothing reverts
	// to it; it is exposed in the status so a client can diff the proposal.
	Previous   domain.Collection `json:"previous"`
	Added      []string          `json:"added,omitempty"`
	Replaced   []string          `json:"replaced,omitempty"`
	DetectedAt time.Time         `json:"detectedAt"`
}

func (r *ConflictRecord) clone() *ConflictRecord {
	if r == nil {
		return nil
	}

	out := *r
	out.Proposed = r.Proposed.Clone()
	out.Previous = r.Previous.Clone()
	out.Added = append([]string(nil), r.Added...)
	out.Replaced = append([]string(nil), r.Replaced...)

	return &out
}

// Status is a point-in-time view of the coordinator.
type Status struct {
	State     SyncState       `json:"state"`
	Conflict  *ConflictRecord `json:"conflict,omitempty"`
	LastSync  time.Time       `json:"lastSync,omitzero"`
	LastError string          `json:"lastError,omitempty"`
}

// SyncCoordinatorConfig contains configuration for the sync coordinator.
type SyncCoordinatorConfig struct {
	// Collection is the local collection manager. Required.
	Collection *Collection

	// Remote is the remote source. Required.
	Remote ports.RemoteSource

	// Events receives sync notifications. Optional.
	Events ports.EventPublisher

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time

	// FetchTimeout bounds each shared fetch. Defaults to 30s.
	FetchTimeout time.Duration
}

// SyncCoordinator runs fetch, merge and conflict resolution against the
// local collection. Concurrent Sync calls share one in-flight fetch.
type SyncCoordinator struct {
	collection *Collection
	remote     ports.RemoteSource
	events     ports.EventPublisher
	logger     *slog.Logger
	now        func() time.Time

	group        singleflight.Group
	fetchTimeout time.Duration

	mu        sync.Mutex
	state     SyncState
	conflict  *ConflictRecord
	lastSync  time.Time
	lastError string

	tracer       trace.Tracer
	syncTotal    metric.Int64Counter
	syncDuration metric.Float64Histogram
}

// NewSyncCoordinator creates a coordinator in the Idle state.
func NewSyncCoordinator(cfg SyncCoordinatorConfig) (*SyncCoordinator, error) {
	if cfg.Collection == nil {
		panic("app: SyncCoordinatorConfig.Collection is required")
	}

	if cfg.Remote == nil {
		panic("app: SyncCoordinatorConfig.Remote is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}

	meter := otel.Meter(syncInstrumentationName)

	syncTotal, err := meter.Int64Counter(
		"quotesync.sync.total",
		metric.WithDescription("Total number of sync attempts by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sync counter: %w", err)
	}

	syncDuration, err := meter.Float64Histogram(
		"quotesync.sync.duration",
		metric.WithDescription("Duration of sync attempts"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sync duration metric: %w", err)
	}

	return &SyncCoordinator{
		collection:   cfg.Collection,
		remote:       cfg.Remote,
		events:       cfg.Events,
		logger:       logger.With(slog.String("component", "sync")),
		now:          now,
		fetchTimeout: fetchTimeout,
		state:        StateIdle,
		tracer:       otel.Tracer(syncInstrumentationName),
		syncTotal:    syncTotal,
		syncDuration: syncDuration,
	}, nil
}

// Status returns the current state and a copy of any pending conflict.
func (s *SyncCoordinator) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		State:     s.state,
		Conflict:  s.conflict.clone(),
		LastSync:  s.lastSync,
		LastError: s.lastError,
	}
}

// Sync fetches the remote collection and merges it with the local one.
//
// While a fetch is outstanding, further calls wait for and share its result.
// The shared fetch runs detached from every caller, so a caller whose context
// ends gets its context error without failing the others. While a conflict is
// pending, Sync returns a *domain.ConflictPendingError and leaves the conflict
// untouched.
func (s *SyncCoordinator) Sync(ctx context.Context) (SyncOutcome, error) {
	flight, err := s.begin(ctx, false)
	if err != nil {
		return "", err
	}

	return s.await(ctx, flight)
}

// begin starts a sync flight, or joins the one in progress. Scheduled callers
// get a nil channel instead of joining. The state check and the flight start
// share one critical section, and every flight forgets its key under the same
// lock that leaves StateFetching, so a caller that sees Idle always starts a
// fresh flight.
func (s *SyncCoordinator) begin(ctx context.Context, scheduled bool) (<-chan singleflight.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateDiverged:
		return nil, domain.NewConflictPendingError(s.conflict.ID)

	case StateFetching:
		if scheduled {
			s.logger.DebugContext(ctx, "skipping scheduled sync", slog.String("state", string(s.state)))
			return nil, nil
		}

		s.logger.DebugContext(ctx, "joined in-flight sync")

	default:
		s.state = StateFetching
	}

	detached := context.WithoutCancel(ctx)

	return s.group.DoChan(syncFlightKey, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(detached, s.fetchTimeout)
		defer cancel()

		return s.runSync(flightCtx)
	}), nil
}

func (s *SyncCoordinator) await(ctx context.Context, flight <-chan singleflight.Result) (SyncOutcome, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return "", res.Err
		}

		outcome, _ := res.Val.(SyncOutcome)

		return outcome, nil
	}
}

// settle records the end of a flight. Must be called with mu held.
func (s *SyncCoordinator) settle(state SyncState) {
	s.state = state
	s.group.Forget(syncFlightKey)
}

func (s *SyncCoordinator) runSync(ctx context.Context) (SyncOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "sync.Run")
	defer span.End()

	start := s.now()
	local := s.collection.Snapshot()

	remote, err := s.remote.FetchQuotes(ctx)
	if err != nil {
		return "", s.failSync(ctx, span, start, err)
	}

	result := domain.Merge(local, remote)
	span.SetAttributes(
		attribute.Int("sync.local_count", len(local)),
		attribute.Int("sync.remote_count", len(remote)),
		attribute.Bool("sync.changed", result.Changed),
	)

	if !result.Changed {
		s.mu.Lock()
		s.settle(StateIdle)
		s.lastSync = s.now()
		s.lastError = ""
		s.mu.Unlock()

		s.record(ctx, start, string(OutcomeNoChange))
		s.logger.InfoContext(ctx, "sync completed with no changes", slog.Int("remote_count", len(remote)))
		s.publish(ctx, ports.SyncCompletedNoChange{CompletedAt: s.now()})

		return OutcomeNoChange, nil
	}

	record := &ConflictRecord{
		ID:         uuid.NewString(),
		Proposed:   result.Merged,
		Previous:   local,
		Added:      result.Added,
		Replaced:   result.Replaced,
		DetectedAt: s.now(),
	}

	s.mu.Lock()
	s.settle(StateDiverged)
	s.conflict = record
	s.lastSync = record.DetectedAt
	s.lastError = ""
	s.mu.Unlock()

	s.record(ctx, start, string(OutcomeConflictDetected))
	s.logger.InfoContext(ctx, "sync detected divergence",
		slog.String("conflict_id", record.ID),
		slog.Int("added", len(record.Added)),
		slog.Int("replaced", len(record.Replaced)),
	)
	s.logger.Log(ctx, logging.LevelTrace, "merge detail",
		slog.String("conflict_id", record.ID),
		slog.Any("added_ids", record.Added),
		slog.Any("replaced_ids", record.Replaced),
	)
	s.publish(ctx, ports.ConflictDetected{
		ConflictID: record.ID,
		Proposed:   record.Proposed.Clone(),
		Added:      record.Added,
		Replaced:   record.Replaced,
		DetectedAt: record.DetectedAt,
	})

	return OutcomeConflictDetected, nil
}

func (s *SyncCoordinator) failSync(ctx context.Context, span trace.Span, start time.Time, err error) error {
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		err = domain.NewFetchError("remote", err)
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	s.mu.Lock()
	s.settle(StateIdle)
	s.lastError = err.Error()
	s.mu.Unlock()

	s.record(ctx, start, "failed")
	s.logger.WarnContext(ctx, "sync failed", slog.Any("error", err))
	s.publish(ctx, ports.SyncFailed{Reason: err.Error()})

	return err
}

// Resolve applies a decision to the pending conflict.
//
// AcceptRemote commits the proposed collection. Quotes added locally after the
// sync started are kept, since the proposal is merged onto the current
// collection rather than installed blindly. KeepLocal drops the proposal
// without touching the collection or the store. If the commit fails the
// conflict stays pending.
func (s *SyncCoordinator) Resolve(ctx context.Context, decision Decision) error {
	if _, err := ParseDecision(string(decision)); err != nil {
		return err
	}

	s.mu.Lock()

	if s.state != StateDiverged || s.conflict == nil {
		s.mu.Unlock()
		return ErrNoConflict
	}

	record := s.conflict

	if decision == AcceptRemote {
		err := s.collection.Update(ctx, func(current domain.Collection) domain.Collection {
			return domain.Merge(current, record.Proposed).Merged
		})
		if err != nil {
			s.mu.Unlock()
			s.logger.ErrorContext(ctx, "failed to commit accepted merge",
				slog.String("conflict_id", record.ID),
				slog.Any("error", err),
			)

			return fmt.Errorf("committing conflict %s: %w", record.ID, err)
		}
	}

	s.state = StateIdle
	s.conflict = nil
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "conflict resolved",
		slog.String("conflict_id", record.ID),
		slog.String("decision", string(decision)),
	)
	s.publish(ctx, ports.ConflictResolved{ConflictID: record.ID, Decision: string(decision)})

	return nil
}

// Run syncs every interval until ctx is cancelled. Ticks that arrive while the
// coordinator is not Idle are skipped. When immediate is true the first sync
// runs before the first tick.
func (s *SyncCoordinator) Run(ctx context.Context, interval time.Duration, immediate bool) error {
	if interval <= 0 {
		return domain.NewValidationErrorWithValue("interval", "must be positive", interval)
	}

	s.logger.InfoContext(ctx, "sync scheduler started", slog.Duration("interval", interval))

	if immediate {
		s.tick(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "sync scheduler stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *SyncCoordinator) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	flight, err := s.begin(ctx, true)
	if err != nil {
		s.logger.DebugContext(ctx, "skipping scheduled sync", slog.Any("error", err))
		return
	}

	if flight == nil {
		return
	}

	// Failures are already logged and published.
	_, _ = s.await(ctx, flight)
}

func (s *SyncCoordinator) record(ctx context.Context, start time.Time, outcome string) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))

	s.syncTotal.Add(ctx, 1, attrs)
	s.syncDuration.Record(ctx, s.now().Sub(start).Seconds(), attrs)
}

func (s *SyncCoordinator) publish(ctx context.Context, event ports.Event) {
	if s.events == nil {
		return
	}

	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish sync event",
			slog.String("event_type", event.EventType()),
			slog.Any("error", err),
		)
	}
}
