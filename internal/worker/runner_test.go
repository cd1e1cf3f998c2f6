package worker

import (
	"context"
	"math/big"
	"testing"
	"time"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	config "github.com/tokenlens/burnwatch/configs"
	"github.com/tokenlens/burnwatch/internal/calculator"
	"github.com/tokenlens/burnwatch/internal/common"
	"github.com/tokenlens/burnwatch/internal/rpc"
	"github.com/tokenlens/burnwatch/internal/rpc/stub"
	"github.com/tokenlens/burnwatch/internal/storage"
)

const (
	testContract = "0x95ad61b0a150d79219dcf64e1e6cc01f0b64c4ce"
	testTokenID  = "1:" + testContract
)

func newTestRunner(reader rpc.IChainReader, queueSize int) (*Runner, *storage.MemoryConnector) {
	store := storage.NewMemoryConnector(nil)
	calc := calculator.New(reader, nil)
	runner := NewRunner(reader, calc, store, store, &config.RunnerConfig{Workers: 1, QueueSize: queueSize})
	return runner, store
}

func deferredJob(now time.Time) *common.RecomputationJob {
	windows := []common.Window{common.Window1H, common.Window24H}
	return common.NewRecomputationJob(testTokenID, testContract, 1, windows, now)
}

func TestSubmit_PersistsPendingJobAndDedupesPerToken(t *testing.T) {
	reader := stub.NewReader(100_000, 0, 3)
	runner, store := newTestRunner(reader, 8)
	ctx := context.Background()

	job := deferredJob(time.Now())
	require.True(t, runner.Submit(ctx, job))

	stored, err := store.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, common.JobStatusPending, stored.Status)

	// A second job for the same token is rejected while the first is queued.
	dup := deferredJob(time.Now().Add(time.Second))
	assert.False(t, runner.Submit(ctx, dup))
	dupStored, err := store.GetJob(ctx, dup.ID)
	require.NoError(t, err)
	assert.Nil(t, dupStored)

	// A different token is unaffected.
	other := common.NewRecomputationJob("1:0x0000000000000000000000000000000000000123",
		"0x0000000000000000000000000000000000000123", 1, []common.Window{common.Window1H}, time.Now())
	assert.True(t, runner.Submit(ctx, other))
}

func TestSubmit_QueueFullMarksJobFailed(t *testing.T) {
	reader := stub.NewReader(100_000, 0, 3)
	runner, store := newTestRunner(reader, 1)
	ctx := context.Background()

	first := deferredJob(time.Now())
	require.True(t, runner.Submit(ctx, first))

	second := common.NewRecomputationJob("1:0x0000000000000000000000000000000000000123",
		"0x0000000000000000000000000000000000000123", 1, []common.Window{common.Window1H}, time.Now())
	assert.False(t, runner.Submit(ctx, second))

	stored, err := store.GetJob(ctx, second.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, common.JobStatusFailed, stored.Status)
	assert.Contains(t, stored.Error, "queue full")

	// The rejected token is free to submit again once there is room.
	again := common.NewRecomputationJob("1:0x0000000000000000000000000000000000000123",
		"0x0000000000000000000000000000000000000123", 1, []common.Window{common.Window1H}, time.Now().Add(time.Second))
	runner.queue = make(chan *common.RecomputationJob, 4)
	assert.True(t, runner.Submit(ctx, again))
}

func TestProcess_CompletesJobAndMergesWindows(t *testing.T) {
	reader := stub.NewReader(100_000, 0, 3)
	reader.LogsFn = func(contract string, toTopic gethCommon.Hash, fromBlock, toBlock uint64) ([]rpc.TransferAmount, error) {
		if toTopic == rpc.AddressTopic("0x000000000000000000000000000000000000dead") {
			return []rpc.TransferAmount{{Amount: big.NewInt(2e18), BlockNumber: toBlock}}, nil
		}
		return nil, nil
	}
	runner, store := newTestRunner(reader, 8)
	ctx := context.Background()

	job := deferredJob(time.Now())
	require.True(t, runner.Submit(ctx, job))
	runner.process(ctx, job)

	stored, err := store.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, common.JobStatusCompleted, stored.Status)
	assert.False(t, stored.StartedAt.IsZero())
	assert.False(t, stored.CompletedAt.IsZero())
	assert.Empty(t, stored.Error)

	profile, err := store.GetProfile(ctx, testTokenID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, 2.0, profile.Windows[common.Window1H])
	assert.Equal(t, 2.0, profile.Windows[common.Window24H])
	assert.Equal(t, uint64(100_000), profile.LastProcessedBlock)

	// process released the in-flight slot, so the token can be resubmitted.
	next := deferredJob(time.Now().Add(time.Second))
	assert.True(t, runner.Submit(ctx, next))
}

func TestProcess_PartialFailureMergesSuccessesAndFailsJob(t *testing.T) {
	reader := stub.NewReader(100_000, 0, 3)
	// The 24h window starts below block 72,000; only it fails.
	reader.LogsFn = func(contract string, toTopic gethCommon.Hash, fromBlock, toBlock uint64) ([]rpc.TransferAmount, error) {
		if fromBlock < 72_000 {
			return nil, common.ErrUpstreamUnavailable
		}
		if toTopic == rpc.AddressTopic("0x000000000000000000000000000000000000dead") {
			return []rpc.TransferAmount{{Amount: big.NewInt(5e17), BlockNumber: toBlock}}, nil
		}
		return nil, nil
	}
	runner, store := newTestRunner(reader, 8)
	ctx := context.Background()

	job := deferredJob(time.Now())
	require.True(t, runner.Submit(ctx, job))
	runner.process(ctx, job)

	stored, err := store.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, common.JobStatusFailed, stored.Status)
	assert.Contains(t, stored.Error, "24h")

	// The window that succeeded was still persisted.
	profile, err := store.GetProfile(ctx, testTokenID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, 0.5, profile.Windows[common.Window1H])
	assert.Zero(t, profile.Windows[common.Window24H])
}

func TestProcess_HeightFailureLeavesProfileUntouched(t *testing.T) {
	reader := stub.NewReader(100_000, 0, 3)
	runner, store := newTestRunner(reader, 8)
	ctx := context.Background()

	require.NoError(t, store.MergeProfile(ctx, testTokenID, storage.ProfileUpdate{
		ContractAddress:    testContract,
		ChainID:            1,
		Windows:            map[common.Window]float64{common.Window24H: 9.75},
		LastProcessedBlock: 95_000,
		LastUpdated:        time.Now().Add(-time.Hour),
	}))

	reader.HeightFn = func() (uint64, error) {
		return 0, common.ErrUpstreamUnavailable
	}

	job := deferredJob(time.Now())
	require.True(t, runner.Submit(ctx, job))
	runner.process(ctx, job)

	stored, err := store.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, common.JobStatusFailed, stored.Status)

	profile, err := store.GetProfile(ctx, testTokenID)
	require.NoError(t, err)
	assert.Equal(t, 9.75, profile.Windows[common.Window24H])
	assert.Equal(t, uint64(95_000), profile.LastProcessedBlock)
}

func TestRunner_StartDrainsQueue(t *testing.T) {
	reader := stub.NewReader(100_000, 0, 3)
	runner, store := newTestRunner(reader, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Start(ctx)

	job := deferredJob(time.Now())
	require.True(t, runner.Submit(ctx, job))

	require.Eventually(t, func() bool {
		stored, err := store.GetJob(context.Background(), job.ID)
		return err == nil && stored != nil && stored.Status.IsTerminal()
	}, 2*time.Second, 10*time.Millisecond)

	stored, err := store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, common.JobStatusCompleted, stored.Status)
}
