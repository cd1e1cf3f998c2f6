// Package stub provides a configurable in-memory IChainReader for tests.
package stub

import (
	"context"
	"fmt"
	"sync"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/tokenlens/burnwatch/internal/common"
	"github.com/tokenlens/burnwatch/internal/rpc"
)

// Reader simulates a chain with a constant block time starting at
// GenesisTime. Behaviour can be overridden per call via the Fn fields.
type Reader struct {
	Height       uint64
	GenesisTime  int64
	BlockSeconds int64
	Decimals     uint8

	// Optional overrides.
	TimestampFn func(blockNumber uint64) (int64, error)
	LogsFn      func(contractAddress string, toTopic gethCommon.Hash, fromBlock, toBlock uint64) ([]rpc.TransferAmount, error)
	HeightFn    func() (uint64, error)

	mu             sync.Mutex
	heightCalls    int
	timestampCalls int
	logsCalls      int
	decimalsCalls  int
}

func NewReader(height uint64, genesisTime, blockSeconds int64) *Reader {
	return &Reader{
		Height:       height,
		GenesisTime:  genesisTime,
		BlockSeconds: blockSeconds,
		Decimals:     18,
	}
}

func (r *Reader) CurrentHeight(ctx context.Context) (uint64, error) {
	r.mu.Lock()
	r.heightCalls++
	r.mu.Unlock()
	if r.HeightFn != nil {
		return r.HeightFn()
	}
	return r.Height, nil
}

func (r *Reader) BlockTimestamp(ctx context.Context, blockNumber uint64) (int64, error) {
	r.mu.Lock()
	r.timestampCalls++
	r.mu.Unlock()
	if r.TimestampFn != nil {
		return r.TimestampFn(blockNumber)
	}
	if blockNumber == 0 || blockNumber > r.Height {
		return 0, fmt.Errorf("block %d: %w", blockNumber, common.ErrBlockNotFound)
	}
	return r.GenesisTime + int64(blockNumber)*r.BlockSeconds, nil
}

func (r *Reader) LogsInRange(ctx context.Context, contractAddress string, eventSignature gethCommon.Hash, toTopic gethCommon.Hash, fromBlock, toBlock uint64) ([]rpc.TransferAmount, error) {
	r.mu.Lock()
	r.logsCalls++
	r.mu.Unlock()
	if fromBlock > toBlock {
		return nil, fmt.Errorf("from %d > to %d: %w", fromBlock, toBlock, common.ErrInvalidRange)
	}
	if r.LogsFn != nil {
		return r.LogsFn(contractAddress, toTopic, fromBlock, toBlock)
	}
	return nil, nil
}

func (r *Reader) TokenDecimals(ctx context.Context, contractAddress string) (uint8, error) {
	r.mu.Lock()
	r.decimalsCalls++
	r.mu.Unlock()
	return r.Decimals, nil
}

func (r *Reader) Close() {}

func (r *Reader) HeightCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.heightCalls
}

func (r *Reader) TimestampCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timestampCalls
}

func (r *Reader) LogsCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logsCalls
}

func (r *Reader) DecimalsCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.decimalsCalls
}
