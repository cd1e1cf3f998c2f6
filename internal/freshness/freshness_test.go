package freshness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	config "github.com/tokenlens/burnwatch/configs"
	"github.com/tokenlens/burnwatch/internal/common"
)

func TestPartitionWindows_FreshlyCreatedProfileIsMaximallyStale(t *testing.T) {
	policy := NewPolicy(nil)
	profile := common.NewTokenBurnProfile("0xabc", 1)

	part := policy.PartitionWindows(profile, common.AllWindows, time.Now())

	assert.ElementsMatch(t, []common.Window{common.Window5Min, common.Window15Min}, part.Immediate)
	assert.Len(t, part.Deferred, 6)
	assert.Empty(t, part.Fresh)
}

func TestPartitionWindows_NilProfileIsMaximallyStale(t *testing.T) {
	policy := NewPolicy(nil)

	part := policy.PartitionWindows(nil, common.AllWindows, time.Now())

	assert.Len(t, part.Immediate, 2)
	assert.Len(t, part.Deferred, 6)
	assert.Empty(t, part.Fresh)
}

func TestPartitionWindows_RecentUpdateIsAllFresh(t *testing.T) {
	policy := NewPolicy(nil)
	now := time.Now()
	profile := common.NewTokenBurnProfile("0xabc", 1)
	profile.LastUpdated = now.Add(-10 * time.Second)

	part := policy.PartitionWindows(profile, common.AllWindows, now)

	assert.Empty(t, part.Immediate)
	assert.Empty(t, part.Deferred)
	assert.Len(t, part.Fresh, len(common.AllWindows))
}

func TestPartitionWindows_MixedStaleness(t *testing.T) {
	policy := NewPolicy(nil)
	now := time.Now()
	profile := common.NewTokenBurnProfile("0xabc", 1)
	// Older than the 5min and 15min TTLs, younger than everything else.
	profile.LastUpdated = now.Add(-200 * time.Second)

	part := policy.PartitionWindows(profile, common.AllWindows, now)

	assert.ElementsMatch(t, []common.Window{common.Window5Min, common.Window15Min}, part.Immediate)
	assert.Empty(t, part.Deferred)
	assert.Len(t, part.Fresh, 6)
}

// Every requested window must land in exactly one bucket, for any
// combination of TTL table and clock.
func TestPartitionWindows_DisjointAndExhaustive(t *testing.T) {
	ages := []time.Duration{
		0,
		30 * time.Second,
		5 * time.Minute,
		1 * time.Hour,
		5 * time.Hour,
		48 * time.Hour,
	}
	policies := []*Policy{
		NewPolicy(nil),
		NewPolicy(&config.FreshnessConfig{TTLSeconds: map[string]int{"5min": 1, "24h": 999999}}),
	}

	for _, policy := range policies {
		for _, age := range ages {
			now := time.Now()
			profile := common.NewTokenBurnProfile("0xabc", 1)
			profile.LastUpdated = now.Add(-age)

			part := policy.PartitionWindows(profile, common.AllWindows, now)

			seen := make(map[common.Window]int)
			for _, w := range part.Immediate {
				seen[w]++
			}
			for _, w := range part.Deferred {
				seen[w]++
			}
			for _, w := range part.Fresh {
				seen[w]++
			}
			assert.Len(t, seen, len(common.AllWindows), "age %v", age)
			for w, count := range seen {
				assert.Equal(t, 1, count, "window %s appeared %d times at age %v", w, count, age)
			}
		}
	}
}

func TestPartitionWindows_StaleWindowsFollowTierAssignment(t *testing.T) {
	policy := NewPolicy(nil)
	now := time.Now()
	profile := common.NewTokenBurnProfile("0xabc", 1)
	profile.LastUpdated = now.Add(-72 * time.Hour)

	part := policy.PartitionWindows(profile, common.AllWindows, now)

	for _, w := range part.Immediate {
		assert.True(t, IsImmediate(w))
	}
	for _, w := range part.Deferred {
		assert.False(t, IsImmediate(w))
	}
}

func TestNewPolicy_ConfigOverrides(t *testing.T) {
	policy := NewPolicy(&config.FreshnessConfig{TTLSeconds: map[string]int{
		"5min":  30,
		"bogus": 10,
		"24h":   -5,
	}})

	assert.Equal(t, 30*time.Second, policy.TTL(common.Window5Min))
	// Unknown names and non-positive values are ignored.
	assert.Equal(t, 14400*time.Second, policy.TTL(common.Window24H))
}
