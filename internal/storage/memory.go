package storage

import (
	"context"
	"sync"

	config "github.com/tokenlens/burnwatch/configs"
	"github.com/tokenlens/burnwatch/internal/common"
)

// MemoryConnector is the in-process store used in tests and single-node
// deployments. Merges run under one lock, so the field-level merge
// contract holds trivially.
type MemoryConnector struct {
	mu       sync.RWMutex
	profiles map[string]*common.TokenBurnProfile

	jobMu       sync.RWMutex
	jobs        map[string]*common.RecomputationJob
	jobsByToken map[string][]string
}

func NewMemoryConnector(cfg *config.MemoryConfig) *MemoryConnector {
	return &MemoryConnector{
		profiles:    make(map[string]*common.TokenBurnProfile),
		jobs:        make(map[string]*common.RecomputationJob),
		jobsByToken: make(map[string][]string),
	}
}

func (m *MemoryConnector) GetProfile(ctx context.Context, tokenID string) (*common.TokenBurnProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profile, ok := m.profiles[tokenID]
	if !ok {
		return nil, nil
	}
	return profile.Copy(), nil
}

func (m *MemoryConnector) MergeProfile(ctx context.Context, tokenID string, update ProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile, ok := m.profiles[tokenID]
	if !ok {
		profile = common.NewTokenBurnProfile(update.ContractAddress, update.ChainID)
		m.profiles[tokenID] = profile
	}

	for w, amount := range update.Windows {
		profile.Windows[w] = amount
	}
	if update.Decimals != nil {
		profile.Decimals = *update.Decimals
	}
	if update.LastProcessedBlock > profile.LastProcessedBlock {
		profile.LastProcessedBlock = update.LastProcessedBlock
	}
	if !update.LastUpdated.IsZero() {
		profile.LastUpdated = update.LastUpdated
	}
	if update.ComputationTimeMs > 0 {
		profile.ComputationTimeMs = update.ComputationTimeMs
	}
	return nil
}

func (m *MemoryConnector) InsertJob(ctx context.Context, job *common.RecomputationJob) error {
	m.jobMu.Lock()
	defer m.jobMu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	m.jobsByToken[job.TokenID] = append([]string{job.ID}, m.jobsByToken[job.TokenID]...)
	return nil
}

func (m *MemoryConnector) GetJob(ctx context.Context, jobID string) (*common.RecomputationJob, error) {
	m.jobMu.RLock()
	defer m.jobMu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, nil
	}
	cp := *job
	return &cp, nil
}

func (m *MemoryConnector) UpdateJob(ctx context.Context, job *common.RecomputationJob) error {
	m.jobMu.Lock()
	defer m.jobMu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *MemoryConnector) ListJobsByToken(ctx context.Context, tokenID string, limit, page int) ([]*common.RecomputationJob, error) {
	m.jobMu.RLock()
	defer m.jobMu.RUnlock()

	ids := m.jobsByToken[tokenID]
	if limit <= 0 {
		limit = 25
	}
	if page < 0 {
		page = 0
	}
	start := page * limit
	if start >= len(ids) {
		return nil, nil
	}
	end := start + limit
	if end > len(ids) {
		end = len(ids)
	}

	jobs := make([]*common.RecomputationJob, 0, end-start)
	for _, id := range ids[start:end] {
		cp := *m.jobs[id]
		jobs = append(jobs, &cp)
	}
	return jobs, nil
}
