package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"farmbooks/internal/config"
	"farmbooks/internal/domain"
	"farmbooks/internal/port"
)

// errorSummaryLimit caps the number of per-document failures kept in a run's
// error summary.
const errorSummaryLimit = 20

// SyncService coordinates pull-based synchronization with the exchange.
// At most one run is active at any time; concurrent start attempts lose the
// claim race and get ErrRunInProgress.
type SyncService interface {
	// StartRun claims a new run and processes it in the background. The
	// returned run is a snapshot in running status; progress is observable
	// through GetRun.
	StartRun(ctx context.Context, manual bool, triggeredBy *uuid.UUID) (*domain.SyncRun, error)
	GetRun(ctx context.Context, id uuid.UUID) (*domain.SyncRun, error)
	ListRuns(ctx context.Context, offset, limit int) ([]domain.SyncRun, int, error)
	// CancelRun requests cancellation of the identified running run. Documents
	// already persisted stay and the document in flight finishes; the run
	// terminates in cancelled status.
	CancelRun(ctx context.Context, id uuid.UUID) (*domain.SyncRun, error)
	// Running returns the active run, or ErrRunNotFound when none is active.
	Running(ctx context.Context) (*domain.SyncRun, error)
	// Wait blocks until all background runs have finished.
	Wait()
}

type syncService struct {
	runs      port.SyncRunRepository
	connector port.ExchangeConnector
	ingest    IngestService
	cfg       config.SyncConfig

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
	wg      sync.WaitGroup
}

// NewSyncService creates a new SyncService implementation.
func NewSyncService(
	runs port.SyncRunRepository,
	connector port.ExchangeConnector,
	ingest IngestService,
	cfg config.SyncConfig,
) SyncService {
	return &syncService{
		runs:      runs,
		connector: connector,
		ingest:    ingest,
		cfg:       cfg,
		cancels:   make(map[uuid.UUID]context.CancelFunc),
	}
}

func (s *syncService) StartRun(ctx context.Context, manual bool, triggeredBy *uuid.UUID) (*domain.SyncRun, error) {
	now := time.Now().UTC()
	run := &domain.SyncRun{
		ID:          uuid.New(),
		Status:      domain.RunStatusRunning,
		StartedAt:   now,
		Manual:      manual,
		TriggeredBy: triggeredBy,
	}
	run.Touch(now, triggeredBy)

	since, err := s.sinceWindow(ctx)
	if err != nil {
		return nil, err
	}

	// The insert is the single-flight gate: a partial unique index on the
	// running status admits exactly one winner.
	if err := s.runs.Claim(ctx, run); err != nil {
		return nil, err
	}

	// The run outlives the triggering request; it gets its own context.
	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[run.ID] = cancel
	s.mu.Unlock()

	// The worker mutates progress counters on its own copy; the run handed
	// back to the caller stays frozen at its claimed state.
	worker := *run

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.cancels, run.ID)
			s.mu.Unlock()
			cancel()
		}()
		s.process(runCtx, &worker, since)
	}()

	return run, nil
}

// sinceWindow computes the pull window start: the previous completed run's
// start minus a small overlap, or a bounded lookback on the very first run.
// Overlap re-fetches are harmless because ingestion is idempotent.
func (s *syncService) sinceWindow(ctx context.Context) (time.Time, error) {
	last, err := s.runs.LastCompletedAt(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("syncService.sinceWindow: %w", err)
	}
	if last.IsZero() {
		return time.Now().UTC().Add(-time.Duration(s.cfg.LookbackHours) * time.Hour), nil
	}
	return last.Add(-time.Duration(s.cfg.OverlapMinutes) * time.Minute), nil
}

func (s *syncService) process(ctx context.Context, run *domain.SyncRun, since time.Time) {
	log.Printf("syncService: run %s started (since=%s, manual=%v)", run.ID, since.Format(time.RFC3339), run.Manual)

	snap, err := s.ingest.RuleSnapshot(ctx)
	if err != nil {
		s.finish(run, domain.RunStatusFailed, fmt.Sprintf("loading rule snapshot: %v", err))
		return
	}

	var failures []string
	cursor := ""

	for {
		if ctx.Err() != nil {
			s.finish(run, domain.RunStatusCancelled, strings.Join(failures, "; "))
			return
		}

		page, err := s.connector.FetchBatch(ctx, since, cursor)
		if err != nil {
			if ctx.Err() != nil {
				s.finish(run, domain.RunStatusCancelled, strings.Join(failures, "; "))
				return
			}
			reason := fmt.Sprintf("exchange fetch: %v", err)
			if port.IsTransientExchangeError(err) {
				reason += " (retryable on next trigger)"
			}
			failures = append(failures, reason)
			s.finish(run, domain.RunStatusFailed, strings.Join(failures, "; "))
			return
		}

		for _, doc := range page.Documents {
			if ctx.Err() != nil {
				s.finish(run, domain.RunStatusCancelled, strings.Join(failures, "; "))
				return
			}
			run.Fetched++

			// The document in flight always runs to completion; cancellation
			// takes effect between documents, never mid-ingest.
			result, err := s.ingest.Ingest(context.WithoutCancel(ctx), doc, snap)
			if err != nil {
				run.Errored++
				if len(failures) < errorSummaryLimit {
					failures = append(failures, fmt.Sprintf("%s: %v", doc.KSeFNumber, err))
				}
				continue
			}
			switch result.Outcome {
			case domain.IngestCreated:
				run.Persisted++
			case domain.IngestRejected:
				run.Errored++
				if len(failures) < errorSummaryLimit {
					failures = append(failures, fmt.Sprintf("%s: %s", doc.KSeFNumber, result.Reason))
				}
			case domain.IngestDuplicate:
				// Already known; counts as fetched only.
			}
		}

		run.UpdatedAt = time.Now().UTC()
		if err := s.runs.UpdateProgress(context.Background(), run); err != nil {
			log.Printf("syncService: run %s progress update failed: %v", run.ID, err)
		}

		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	// A cancel that lands while the final document is being ingested still
	// terminates the run as cancelled.
	if ctx.Err() != nil {
		s.finish(run, domain.RunStatusCancelled, strings.Join(failures, "; "))
		return
	}

	status := domain.RunStatusCompleted
	if run.Errored > 0 {
		status = domain.RunStatusCompletedWithErrors
	}
	s.finish(run, status, strings.Join(failures, "; "))
}

// finish stamps the terminal state. Persistence uses a background context so
// a cancelled run still records its outcome.
func (s *syncService) finish(run *domain.SyncRun, status domain.RunStatus, summary string) {
	now := time.Now().UTC()
	duration := now.Sub(run.StartedAt).Milliseconds()

	run.Status = status
	run.CompletedAt = &now
	run.DurationMS = &duration
	run.ErrorSummary = summary
	run.UpdatedAt = now

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.runs.Finish(ctx, run); err != nil {
		log.Printf("syncService: run %s finish failed: %v", run.ID, err)
		return
	}
	log.Printf("syncService: run %s finished %s (fetched=%d persisted=%d errored=%d, %dms)",
		run.ID, status, run.Fetched, run.Persisted, run.Errored, duration)
}

func (s *syncService) GetRun(ctx context.Context, id uuid.UUID) (*domain.SyncRun, error) {
	return s.runs.GetByID(ctx, id)
}

func (s *syncService) ListRuns(ctx context.Context, offset, limit int) ([]domain.SyncRun, int, error) {
	return s.runs.List(ctx, offset, limit)
}

func (s *syncService) CancelRun(ctx context.Context, id uuid.UUID) (*domain.SyncRun, error) {
	run, err := s.runs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.Status.IsTerminal() {
		return run, nil
	}

	s.mu.Lock()
	cancel, ok := s.cancels[id]
	s.mu.Unlock()
	if !ok {
		// Running in the database but not on this instance, likely a crashed
		// run. Mark it terminal so the single-flight gate opens again.
		s.finish(run, domain.RunStatusCancelled, "cancelled without an active worker")
		return run, nil
	}
	cancel()
	return run, nil
}

func (s *syncService) Running(ctx context.Context) (*domain.SyncRun, error) {
	run, err := s.runs.GetRunning(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			return nil, domain.ErrRunNotFound
		}
		return nil, err
	}
	return run, nil
}

func (s *syncService) Wait() {
	s.wg.Wait()
}
