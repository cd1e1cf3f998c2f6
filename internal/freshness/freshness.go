// Package freshness decides, without any I/O, which stored burn windows
// are still servable and which must be recomputed, and on which path.
package freshness

import (
	"time"

	config "github.com/tokenlens/burnwatch/configs"
	"github.com/tokenlens/burnwatch/internal/common"
)

// immediateTier holds the windows recomputed synchronously on the request
// path. Everything else is refreshed by the background runner.
var immediateTier = map[common.Window]bool{
	common.Window5Min:  true,
	common.Window15Min: true,
}

var defaultTTL = map[common.Window]time.Duration{
	common.Window5Min:  60 * time.Second,
	common.Window15Min: 180 * time.Second,
	common.Window30Min: 300 * time.Second,
	common.Window1H:    600 * time.Second,
	common.Window3H:    1800 * time.Second,
	common.Window6H:    3600 * time.Second,
	common.Window12H:   7200 * time.Second,
	common.Window24H:   14400 * time.Second,
}

// Partition buckets every requested window into exactly one of the three
// sets.
type Partition struct {
	Immediate []common.Window
	Deferred  []common.Window
	Fresh     []common.Window
}

type Policy struct {
	ttl map[common.Window]time.Duration
}

func NewPolicy(cfg *config.FreshnessConfig) *Policy {
	ttl := make(map[common.Window]time.Duration, len(defaultTTL))
	for w, d := range defaultTTL {
		ttl[w] = d
	}
	if cfg != nil {
		for name, seconds := range cfg.TTLSeconds {
			w, err := common.ParseWindow(name)
			if err != nil || seconds <= 0 {
				continue
			}
			ttl[w] = time.Duration(seconds) * time.Second
		}
	}
	return &Policy{ttl: ttl}
}

func (p *Policy) TTL(w common.Window) time.Duration {
	return p.ttl[w]
}

func IsImmediate(w common.Window) bool {
	return immediateTier[w]
}

// PartitionWindows classifies each requested window. A profile that was
// never updated is maximally stale: every window lands in its tier's stale
// bucket.
func (p *Policy) PartitionWindows(profile *common.TokenBurnProfile, requested []common.Window, now time.Time) Partition {
	var part Partition
	for _, w := range requested {
		if !p.isStale(profile, w, now) {
			part.Fresh = append(part.Fresh, w)
			continue
		}
		if immediateTier[w] {
			part.Immediate = append(part.Immediate, w)
		} else {
			part.Deferred = append(part.Deferred, w)
		}
	}
	return part
}

func (p *Policy) isStale(profile *common.TokenBurnProfile, w common.Window, now time.Time) bool {
	if profile == nil || profile.LastUpdated.IsZero() {
		return true
	}
	return now.Sub(profile.LastUpdated) >= p.ttl[w]
}
