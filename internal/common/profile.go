package common

import (
	"fmt"
	"strings"
	"time"
)

// TokenBurnProfile is the per-token document holding the last computed burn
// amount for each window. All eight window keys are always present; windows
// that were never computed hold 0.
type TokenBurnProfile struct {
	ContractAddress    string             `json:"contractAddress"`
	ChainID            uint64             `json:"chainId"`
	Decimals           uint8              `json:"decimals"`
	Windows            map[Window]float64 `json:"windows"`
	LastProcessedBlock uint64             `json:"lastProcessedBlock"`
	LastUpdated        time.Time          `json:"lastUpdated"`
	ComputationTimeMs  int64              `json:"computationTimeMs"`
}

// NewTokenBurnProfile builds the lazily-created initial profile: every
// window zero, no processed block, zero LastUpdated (maximally stale).
func NewTokenBurnProfile(contractAddress string, chainID uint64) *TokenBurnProfile {
	windows := make(map[Window]float64, len(AllWindows))
	for _, w := range AllWindows {
		windows[w] = 0
	}
	return &TokenBurnProfile{
		ContractAddress: strings.ToLower(contractAddress),
		ChainID:         chainID,
		Windows:         windows,
	}
}

// Copy returns a deep copy so callers can mutate freely.
func (p *TokenBurnProfile) Copy() *TokenBurnProfile {
	cp := *p
	cp.Windows = make(map[Window]float64, len(p.Windows))
	for w, v := range p.Windows {
		cp.Windows[w] = v
	}
	return &cp
}

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// jobTransitions encodes the forward-only state machine. Terminal states
// have no successors.
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusPending: {JobStatusRunning, JobStatusFailed},
	JobStatusRunning: {JobStatusCompleted, JobStatusFailed},
}

func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	for _, allowed := range jobTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// RecomputationJob is one deferred-tier refresh request for a token. Jobs
// are created by the service, mutated only by the background runner, and
// retained after completion.
type RecomputationJob struct {
	ID               string    `json:"id"`
	TokenID          string    `json:"tokenId"`
	ContractAddress  string    `json:"contractAddress"`
	ChainID          uint64    `json:"chainId"`
	Status           JobStatus `json:"status"`
	WindowsRequested []Window  `json:"windowsRequested"`
	CreatedAt        time.Time `json:"createdAt"`
	StartedAt        time.Time `json:"startedAt,omitempty"`
	CompletedAt      time.Time `json:"completedAt,omitempty"`
	Error            string    `json:"error,omitempty"`
}

func NewRecomputationJob(tokenID, contractAddress string, chainID uint64, windows []Window, now time.Time) *RecomputationJob {
	return &RecomputationJob{
		ID:               fmt.Sprintf("%s:%d", tokenID, now.Unix()),
		TokenID:          tokenID,
		ContractAddress:  strings.ToLower(contractAddress),
		ChainID:          chainID,
		Status:           JobStatusPending,
		WindowsRequested: windows,
		CreatedAt:        now,
	}
}

// Transition advances the job status, rejecting any move the forward-only
// state machine does not allow.
func (j *RecomputationJob) Transition(next JobStatus, now time.Time) error {
	if !j.Status.CanTransitionTo(next) {
		return fmt.Errorf("invalid job transition %s -> %s for job %s", j.Status, next, j.ID)
	}
	j.Status = next
	switch next {
	case JobStatusRunning:
		j.StartedAt = now
	case JobStatusCompleted, JobStatusFailed:
		j.CompletedAt = now
	}
	return nil
}
