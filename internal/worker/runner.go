package worker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	config "github.com/tokenlens/burnwatch/configs"
	"github.com/tokenlens/burnwatch/internal/calculator"
	"github.com/tokenlens/burnwatch/internal/common"
	"github.com/tokenlens/burnwatch/internal/metrics"
	"github.com/tokenlens/burnwatch/internal/rpc"
	"github.com/tokenlens/burnwatch/internal/storage"
)

const (
	DEFAULT_WORKERS    = 4
	DEFAULT_QUEUE_SIZE = 256
)

// Runner consumes deferred-tier recomputation jobs. At most one job per
// token is in flight at a time, so two background computations can never
// race to write overlapping deferred windows. Failed jobs are not retried;
// the next request re-detects staleness and resubmits.
type Runner struct {
	reader rpc.IChainReader
	calc   *calculator.Calculator
	store  storage.IBurnStore
	jobs   storage.IJobStore

	queue   chan *common.RecomputationJob
	workers int

	inFlightMu sync.Mutex
	inFlight   map[string]bool
}

func NewRunner(reader rpc.IChainReader, calc *calculator.Calculator, store storage.IBurnStore, jobs storage.IJobStore, cfg *config.RunnerConfig) *Runner {
	workers := DEFAULT_WORKERS
	queueSize := DEFAULT_QUEUE_SIZE
	if cfg != nil {
		if cfg.Workers > 0 {
			workers = cfg.Workers
		}
		if cfg.QueueSize > 0 {
			queueSize = cfg.QueueSize
		}
	}
	return &Runner{
		reader:   reader,
		calc:     calc,
		store:    store,
		jobs:     jobs,
		queue:    make(chan *common.RecomputationJob, queueSize),
		workers:  workers,
		inFlight: make(map[string]bool),
	}
}

// Start runs the worker loop until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	log.Debug().Int("workers", r.workers).Msg("Background job runner running")

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-r.queue:
					if !ok {
						return
					}
					metrics.JobQueueDepth.Set(float64(len(r.queue)))
					r.process(ctx, job)
				}
			}
		}()
	}
	wg.Wait()
}

// Submit enqueues a job unless one is already in flight for the token or
// the queue is full. The job record is persisted before Submit returns, so
// a pending job is observable even before a worker picks it up.
func (r *Runner) Submit(ctx context.Context, job *common.RecomputationJob) bool {
	r.inFlightMu.Lock()
	if r.inFlight[job.TokenID] {
		r.inFlightMu.Unlock()
		return false
	}
	r.inFlight[job.TokenID] = true
	r.inFlightMu.Unlock()

	if err := r.jobs.InsertJob(ctx, job); err != nil {
		log.Error().Err(err).Str("job", job.ID).Msg("Failed to persist job record")
		r.release(job.TokenID)
		return false
	}

	select {
	case r.queue <- job:
		metrics.JobsSubmitted.Inc()
		metrics.JobQueueDepth.Set(float64(len(r.queue)))
		return true
	default:
		log.Warn().Str("job", job.ID).Msg("Job queue full, dropping recomputation job")
		r.markFailed(ctx, job, fmt.Errorf("job queue full"))
		r.release(job.TokenID)
		return false
	}
}

func (r *Runner) release(tokenID string) {
	r.inFlightMu.Lock()
	delete(r.inFlight, tokenID)
	r.inFlightMu.Unlock()
}

func (r *Runner) process(ctx context.Context, job *common.RecomputationJob) {
	defer r.release(job.TokenID)

	if err := job.Transition(common.JobStatusRunning, time.Now()); err != nil {
		log.Error().Err(err).Str("job", job.ID).Msg("Refusing to run job")
		return
	}
	if err := r.jobs.UpdateJob(ctx, job); err != nil {
		log.Error().Err(err).Str("job", job.ID).Msg("Failed to mark job running")
	}

	height, err := r.reader.CurrentHeight(ctx)
	if err != nil {
		r.markFailed(ctx, job, err)
		return
	}

	result := r.calc.ComputeWindows(ctx, job.ContractAddress, job.WindowsRequested, height)

	// Merge whatever succeeded before deciding the job outcome; failed
	// windows keep their stored values.
	if len(result.Amounts) > 0 {
		update := storage.ProfileUpdate{
			ContractAddress:    job.ContractAddress,
			ChainID:            job.ChainID,
			Decimals:           &result.Decimals,
			Windows:            result.Amounts,
			LastProcessedBlock: height,
			LastUpdated:        time.Now(),
		}
		if err := r.store.MergeProfile(ctx, job.TokenID, update); err != nil {
			r.markFailed(ctx, job, err)
			return
		}
	}

	if len(result.Errors) > 0 {
		r.markFailed(ctx, job, combineWindowErrors(result.Errors))
		return
	}

	if err := job.Transition(common.JobStatusCompleted, time.Now()); err != nil {
		log.Error().Err(err).Str("job", job.ID).Msg("Failed to complete job")
		return
	}
	if err := r.jobs.UpdateJob(ctx, job); err != nil {
		log.Error().Err(err).Str("job", job.ID).Msg("Failed to persist completed job")
	}
	metrics.JobsCompleted.Inc()
	log.Debug().Str("job", job.ID).Uint64("height", height).Msg("Recomputation job completed")
}

func (r *Runner) markFailed(ctx context.Context, job *common.RecomputationJob, cause error) {
	if err := job.Transition(common.JobStatusFailed, time.Now()); err != nil {
		log.Error().Err(err).Str("job", job.ID).Msg("Failed to mark job failed")
		return
	}
	job.Error = cause.Error()
	if err := r.jobs.UpdateJob(ctx, job); err != nil {
		log.Error().Err(err).Str("job", job.ID).Msg("Failed to persist failed job")
	}
	metrics.JobsFailed.Inc()
	log.Warn().Err(cause).Str("job", job.ID).Msg("Recomputation job failed")
}

func combineWindowErrors(windowErrors map[common.Window]error) error {
	parts := make([]string, 0, len(windowErrors))
	for w, err := range windowErrors {
		parts = append(parts, fmt.Sprintf("%s: %v", w, err))
	}
	sort.Strings(parts)
	return fmt.Errorf("window computation failed: %s", strings.Join(parts, "; "))
}
