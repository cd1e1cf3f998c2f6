package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tokenlens/burnwatch/internal/calculator"
	"github.com/tokenlens/burnwatch/internal/common"
	"github.com/tokenlens/burnwatch/internal/freshness"
	"github.com/tokenlens/burnwatch/internal/metrics"
	"github.com/tokenlens/burnwatch/internal/registry"
	"github.com/tokenlens/burnwatch/internal/rpc"
	"github.com/tokenlens/burnwatch/internal/storage"
)

// JobSubmitter hands deferred-tier work to the background runner. Submit
// returns false when a job for the token is already in flight or the queue
// is full; the next request re-detects staleness and tries again.
type JobSubmitter interface {
	Submit(ctx context.Context, job *common.RecomputationJob) bool
}

// Service is the request-path orchestrator: it serves the freshest profile
// available right now, recomputes only the short windows synchronously and
// never blocks a caller on long-window recomputation.
type Service struct {
	reader   rpc.IChainReader
	calc     *calculator.Calculator
	store    storage.IBurnStore
	policy   *freshness.Policy
	runner   JobSubmitter
	registry *registry.Registry
}

func New(reader rpc.IChainReader, calc *calculator.Calculator, store storage.IBurnStore, policy *freshness.Policy, runner JobSubmitter, reg *registry.Registry) *Service {
	return &Service{
		reader:   reader,
		calc:     calc,
		store:    store,
		policy:   policy,
		runner:   runner,
		registry: reg,
	}
}

// GetBurnData returns the burn profile for a token symbol or address. The
// response reflects the freshest data available at return time: it includes
// just-computed immediate-tier values but may carry stale deferred-tier
// values. It fails only for unknown tokens or when the very first request
// for a token cannot compute anything.
func (s *Service) GetBurnData(ctx context.Context, tokenRef string) (*common.TokenBurnProfile, error) {
	token, err := s.registry.Resolve(tokenRef)
	if err != nil {
		return nil, err
	}
	tokenID := token.ID()

	profile, err := s.store.GetProfile(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for %s: %w", tokenID, err)
	}
	firstRequest := profile == nil
	if firstRequest {
		profile = common.NewTokenBurnProfile(token.Address, token.ChainID)
	}

	now := time.Now()
	part := s.policy.PartitionWindows(profile, common.AllWindows, now)

	if len(part.Immediate) > 0 {
		if err := s.computeImmediate(ctx, token, profile, part.Immediate, firstRequest); err != nil {
			return nil, err
		}
	} else if len(part.Deferred) == 0 {
		metrics.FreshServes.Inc()
	}

	if len(part.Deferred) > 0 {
		job := common.NewRecomputationJob(tokenID, token.Address, token.ChainID, part.Deferred, now)
		if s.runner.Submit(ctx, job) {
			log.Debug().
				Str("token", tokenID).
				Str("job", job.ID).
				Int("windows", len(part.Deferred)).
				Msg("Submitted deferred recomputation job")
		}
	}

	return profile, nil
}

// RefreshStale scans the registry and queues one recomputation job for
// every token with stale windows. Used by the runner-only mode, where no
// request path exists to trigger refreshes; the immediate tier loses its
// synchronous treatment there and rides along in the job.
func (s *Service) RefreshStale(ctx context.Context, now time.Time) {
	for _, token := range s.registry.Tokens() {
		tokenID := token.ID()

		profile, err := s.store.GetProfile(ctx, tokenID)
		if err != nil {
			log.Error().Err(err).Str("token", tokenID).Msg("Failed to load profile during refresh scan")
			continue
		}

		part := s.policy.PartitionWindows(profile, common.AllWindows, now)
		stale := append(part.Immediate, part.Deferred...)
		if len(stale) == 0 {
			continue
		}

		job := common.NewRecomputationJob(tokenID, token.Address, token.ChainID, stale, now)
		if s.runner.Submit(ctx, job) {
			log.Debug().
				Str("token", tokenID).
				Str("job", job.ID).
				Int("windows", len(stale)).
				Msg("Queued refresh job")
		}
	}
}

// computeImmediate refreshes the immediate-tier windows in place. When any
// prior data exists, upstream failures degrade to serving stale values
// instead of failing the request.
func (s *Service) computeImmediate(ctx context.Context, token registry.Token, profile *common.TokenBurnProfile, windows []common.Window, firstRequest bool) error {
	start := time.Now()

	height, err := s.reader.CurrentHeight(ctx)
	if err != nil {
		if firstRequest {
			return fmt.Errorf("no prior data for %s and height lookup failed: %w", token.ID(), err)
		}
		metrics.StaleFallbacks.Inc()
		log.Warn().Err(err).Str("token", token.ID()).Msg("Serving stale profile, height lookup failed")
		return nil
	}

	result := s.calc.ComputeWindows(ctx, token.Address, windows, height)
	if len(result.Amounts) == 0 {
		if firstRequest {
			for _, windowErr := range result.Errors {
				return fmt.Errorf("no prior data for %s and immediate tier failed: %w", token.ID(), windowErr)
			}
		}
		metrics.StaleFallbacks.Inc()
		log.Warn().Str("token", token.ID()).Msg("Serving stale profile, immediate tier failed")
		return nil
	}

	elapsed := time.Since(start).Milliseconds()
	now := time.Now()

	for w, amount := range result.Amounts {
		profile.Windows[w] = amount
	}
	profile.Decimals = result.Decimals
	if height > profile.LastProcessedBlock {
		profile.LastProcessedBlock = height
	}
	profile.LastUpdated = now
	profile.ComputationTimeMs = elapsed

	update := storage.ProfileUpdate{
		ContractAddress:    token.Address,
		ChainID:            token.ChainID,
		Decimals:           &result.Decimals,
		Windows:            result.Amounts,
		LastProcessedBlock: height,
		LastUpdated:        now,
		ComputationTimeMs:  elapsed,
	}
	if err := s.store.MergeProfile(ctx, token.ID(), update); err != nil {
		log.Error().Err(err).Str("token", token.ID()).Msg("Failed to persist immediate-tier update")
	}

	metrics.ImmediateRecomputations.Inc()
	metrics.LastProcessedBlock.Set(float64(height))
	return nil
}
