package locator

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/tokenlens/burnwatch/internal/common"
	"github.com/tokenlens/burnwatch/internal/metrics"
	"github.com/tokenlens/burnwatch/internal/rpc"
)

// Locator resolves wall-clock targets to block numbers by binary searching
// block timestamps. It assumes nothing about seconds-per-block, so it stays
// correct on chains with irregular spacing.
type Locator struct {
	reader rpc.IChainReader
}

func New(reader rpc.IChainReader) *Locator {
	return &Locator{reader: reader}
}

// FindBlockAtOrBefore returns the best-effort block whose timestamp is at
// or before targetUnix, searching [1, knownLatestBlock]. The returned
// block's timestamp is guaranteed <= targetUnix except for the block 1
// floor. A probe that hits a missing block narrows the upper bound instead
// of failing the search.
func (l *Locator) FindBlockAtOrBefore(ctx context.Context, targetUnix int64, knownLatestBlock uint64) (uint64, error) {
	low, high := uint64(1), knownLatestBlock
	best := uint64(1)
	probes := 0

	for low <= high {
		mid := low + (high-low)/2
		probes++

		timestamp, err := l.reader.BlockTimestamp(ctx, mid)
		if err != nil {
			if errors.Is(err, common.ErrBlockNotFound) {
				// Missing data at this height means it is past what the
				// node can serve; treat the probe as too late.
				if mid <= 1 {
					break
				}
				high = mid - 1
				continue
			}
			return 0, err
		}

		if timestamp <= targetUnix {
			best = mid
			low = mid + 1
		} else {
			if mid <= 1 {
				break
			}
			high = mid - 1
		}
	}

	metrics.LocatorProbes.Observe(float64(probes))
	log.Debug().
		Int64("target", targetUnix).
		Uint64("latest", knownLatestBlock).
		Uint64("block", best).
		Int("probes", probes).
		Msg("Resolved block for timestamp")
	return best, nil
}
