package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/wonny/pim/backend/internal/completeness"
	"github.com/wonny/pim/backend/internal/contracts"
	"github.com/wonny/pim/backend/pkg/logger"
)

// BatchSaver computes and persists completeness for one batch of identifiers
type BatchSaver interface {
	ComputeAndSave(ctx context.Context, identifiers []string) (*completeness.SaveResult, error)
}

// RecomputeCompletenessConfig holds the run settings of the recompute job
type RecomputeCompletenessConfig struct {
	Schedule         string
	BatchSize        int
	BatchesPerSecond float64 // 0 = unlimited
}

// RecomputeCompletenessJob recomputes the completeness of every product.
// Identifiers are paged with a keyset cursor and saved batch by batch; the
// first failing batch fails the run.
// ⭐ SSOT: 전체 completeness 재계산 스케줄은 이 Job에서만
type RecomputeCompletenessJob struct {
	cursor  contracts.ProductIdentifierCursor
	saver   BatchSaver
	limiter *rate.Limiter
	config  RecomputeCompletenessConfig
	logger  *logger.Logger

	mu      sync.Mutex
	lastRun RecomputeRun
}

// RecomputeRun describes one run of the job
type RecomputeRun struct {
	ID             string
	StartedAt      time.Time
	Duration       time.Duration
	Batches        int
	Products       int
	Completenesses int
	LastIdentifier string
}

// NewRecomputeCompletenessJob creates the job
func NewRecomputeCompletenessJob(cursor contracts.ProductIdentifierCursor, saver BatchSaver, cfg RecomputeCompletenessConfig, log *logger.Logger) *RecomputeCompletenessJob {
	if log == nil {
		log = logger.Nop()
	}

	limit := rate.Inf
	if cfg.BatchesPerSecond > 0 {
		limit = rate.Limit(cfg.BatchesPerSecond)
	}

	return &RecomputeCompletenessJob{
		cursor:  cursor,
		saver:   saver,
		limiter: rate.NewLimiter(limit, 1),
		config:  cfg,
		logger:  log.WithComponent("recompute_completeness"),
	}
}

// Name returns the job name
func (j *RecomputeCompletenessJob) Name() string {
	return "completeness_recompute"
}

// Schedule returns the cron schedule (default every day at 2 AM)
func (j *RecomputeCompletenessJob) Schedule() string {
	if j.config.Schedule == "" {
		return "0 0 2 * * *"
	}
	return j.config.Schedule
}

// Run walks every product identifier and recomputes its completeness
func (j *RecomputeCompletenessJob) Run(ctx context.Context) error {
	if j.config.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", contracts.ErrInvalidArgument, j.config.BatchSize)
	}

	run := RecomputeRun{ID: uuid.NewString(), StartedAt: time.Now()}
	log := j.logger.WithField("run_id", run.ID)
	log.Info("Starting completeness recompute")

	defer func() {
		run.Duration = time.Since(run.StartedAt)
		j.mu.Lock()
		j.lastRun = run
		j.mu.Unlock()
	}()

	after := ""
	for {
		identifiers, err := j.cursor.NextIdentifiers(ctx, after, j.config.BatchSize)
		if err != nil {
			return fmt.Errorf("page identifiers after %q: %w", after, err)
		}
		if len(identifiers) == 0 {
			break
		}

		if err := j.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("throttle batch %d: %w", run.Batches+1, err)
		}

		saved, err := j.saver.ComputeAndSave(ctx, identifiers)
		if err != nil {
			log.WithError(err).WithFields(map[string]interface{}{
				"batch": run.Batches + 1,
				"after": after,
			}).Error("Completeness batch failed")
			return fmt.Errorf("batch %d (after %q): %w", run.Batches+1, after, err)
		}

		run.Batches++
		run.Products += saved.Products
		run.Completenesses += saved.Completenesses
		after = identifiers[len(identifiers)-1]
		run.LastIdentifier = after

		log.WithFields(map[string]interface{}{
			"batch":    run.Batches,
			"products": saved.Products,
			"last":     after,
		}).Debug("Completeness batch saved")

		if len(identifiers) < j.config.BatchSize {
			break
		}
	}

	log.WithFields(map[string]interface{}{
		"batches":        run.Batches,
		"products":       run.Products,
		"completenesses": run.Completenesses,
	}).Info("Completeness recompute finished")

	return nil
}

// LastRun returns the most recent run, successful or not
func (j *RecomputeCompletenessJob) LastRun() RecomputeRun {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastRun
}

// LastRunSummary reports the last run to the scheduler history
func (j *RecomputeCompletenessJob) LastRunSummary() map[string]interface{} {
	run := j.LastRun()
	return map[string]interface{}{
		"run_id":          run.ID,
		"batches":         run.Batches,
		"products":        run.Products,
		"completenesses":  run.Completenesses,
		"last_identifier": run.LastIdentifier,
	}
}
