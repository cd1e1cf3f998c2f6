package calculator

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/tokenlens/burnwatch/internal/common"
	"github.com/tokenlens/burnwatch/internal/locator"
	"github.com/tokenlens/burnwatch/internal/metrics"
	"github.com/tokenlens/burnwatch/internal/rpc"
)

// DefaultSinkAddresses covers the two conventions tokens burn to. Treated
// as a set: a token may use either, so every query fans out over both.
var DefaultSinkAddresses = []string{
	"0x000000000000000000000000000000000000dead",
	"0x0000000000000000000000000000000000000000",
}

// Result carries per-window outcomes of one ComputeWindows call. A window
// appears in exactly one of Amounts or Errors; a failed window must keep
// its previously stored value, so it is never reported as zero.
type Result struct {
	Amounts  map[common.Window]float64
	Errors   map[common.Window]error
	Decimals uint8
}

// Calculator sums burn-event transfer amounts per trailing window,
// decimal-adjusted into human units.
type Calculator struct {
	reader  rpc.IChainReader
	locator *locator.Locator
	sinks   []gethCommon.Hash

	decimalsMu    sync.RWMutex
	decimalsCache map[string]uint8
}

func New(reader rpc.IChainReader, sinkAddresses []string) *Calculator {
	if len(sinkAddresses) == 0 {
		sinkAddresses = DefaultSinkAddresses
	}
	sinks := make([]gethCommon.Hash, 0, len(sinkAddresses))
	for _, addr := range sinkAddresses {
		sinks = append(sinks, rpc.AddressTopic(addr))
	}
	return &Calculator{
		reader:        reader,
		locator:       locator.New(reader),
		sinks:         sinks,
		decimalsCache: make(map[string]uint8),
	}
}

// ComputeWindows resolves each requested window to a block range ending at
// toBlock and sums matching burn transfers. Windows share no mutable state
// and are computed concurrently.
func (c *Calculator) ComputeWindows(ctx context.Context, contractAddress string, windows []common.Window, toBlock uint64) Result {
	start := time.Now()
	result := Result{
		Amounts: make(map[common.Window]float64, len(windows)),
		Errors:  make(map[common.Window]error),
	}

	headTimestamp, err := c.reader.BlockTimestamp(ctx, toBlock)
	if err != nil {
		for _, w := range windows {
			result.Errors[w] = err
		}
		return result
	}

	decimals, err := c.decimals(ctx, contractAddress)
	if err != nil {
		for _, w := range windows {
			result.Errors[w] = err
		}
		return result
	}
	result.Decimals = decimals

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, w := range windows {
		wg.Add(1)
		go func(w common.Window) {
			defer wg.Done()
			amount, err := c.computeWindow(ctx, contractAddress, w, headTimestamp, toBlock, decimals)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				metrics.WindowComputationFailures.Inc()
				log.Warn().
					Err(err).
					Str("contract", contractAddress).
					Str("window", string(w)).
					Msg("Failed to compute burn window")
				result.Errors[w] = err
				return
			}
			metrics.WindowComputations.Inc()
			result.Amounts[w] = amount
		}(w)
	}
	wg.Wait()

	metrics.ComputationDuration.Observe(time.Since(start).Seconds())
	return result
}

func (c *Calculator) computeWindow(ctx context.Context, contractAddress string, window common.Window, headTimestamp int64, toBlock uint64, decimals uint8) (float64, error) {
	targetTimestamp := headTimestamp - window.Seconds()

	fromBlock, err := c.locator.FindBlockAtOrBefore(ctx, targetTimestamp, toBlock)
	if err != nil {
		return 0, err
	}

	total := new(big.Int)
	for _, sink := range c.sinks {
		transfers, err := c.reader.LogsInRange(ctx, contractAddress, rpc.TransferEventSignature, sink, fromBlock, toBlock)
		if err != nil {
			return 0, err
		}
		for _, transfer := range transfers {
			total.Add(total, transfer.Amount)
		}
	}

	return scaleToHuman(total, decimals), nil
}

func (c *Calculator) decimals(ctx context.Context, contractAddress string) (uint8, error) {
	key := strings.ToLower(contractAddress)

	c.decimalsMu.RLock()
	decimals, ok := c.decimalsCache[key]
	c.decimalsMu.RUnlock()
	if ok {
		return decimals, nil
	}

	decimals, err := c.reader.TokenDecimals(ctx, contractAddress)
	if err != nil {
		return 0, err
	}

	c.decimalsMu.Lock()
	c.decimalsCache[key] = decimals
	c.decimalsMu.Unlock()
	return decimals, nil
}

// scaleToHuman divides raw token units by 10^decimals. Double precision is
// fine for a display metric; this is not an accounting ledger.
func scaleToHuman(raw *big.Int, decimals uint8) float64 {
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	human, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), scale).Float64()
	return human
}
