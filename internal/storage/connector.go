package storage

import (
	"context"
	"fmt"
	"time"

	config "github.com/tokenlens/burnwatch/configs"
	"github.com/tokenlens/burnwatch/internal/common"
)

// ProfileUpdate is a field-level merge against a stored TokenBurnProfile.
// Only the windows present in Windows change; untouched windows keep their
// stored values. A whole-document overwrite is exactly the bug this
// contract exists to rule out.
type ProfileUpdate struct {
	ContractAddress string
	ChainID         uint64
	Decimals        *uint8
	Windows         map[common.Window]float64
	// LastProcessedBlock is applied only when it exceeds the stored value,
	// keeping the field non-decreasing across concurrent writers.
	LastProcessedBlock uint64
	LastUpdated        time.Time
	ComputationTimeMs  int64
}

type IBurnStore interface {
	// GetProfile returns (nil, nil) when no profile exists for the token.
	GetProfile(ctx context.Context, tokenID string) (*common.TokenBurnProfile, error)
	MergeProfile(ctx context.Context, tokenID string, update ProfileUpdate) error
}

type IJobStore interface {
	InsertJob(ctx context.Context, job *common.RecomputationJob) error
	// GetJob returns (nil, nil) when the job id is unknown.
	GetJob(ctx context.Context, jobID string) (*common.RecomputationJob, error)
	UpdateJob(ctx context.Context, job *common.RecomputationJob) error
	ListJobsByToken(ctx context.Context, tokenID string, limit, page int) ([]*common.RecomputationJob, error)
}

type IStorage struct {
	Burn IBurnStore
	Jobs IJobStore
}

func NewStorageConnector(cfg *config.StorageConfig) (IStorage, error) {
	if cfg.Redis != nil {
		connector, err := NewRedisConnector(cfg.Redis)
		if err != nil {
			return IStorage{}, fmt.Errorf("failed to create redis storage: %w", err)
		}
		return IStorage{Burn: connector, Jobs: connector}, nil
	}
	if cfg.Memory != nil {
		connector := NewMemoryConnector(cfg.Memory)
		return IStorage{Burn: connector, Jobs: connector}, nil
	}
	return IStorage{}, fmt.Errorf("no storage driver configured")
}
