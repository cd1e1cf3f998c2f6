package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindows_AscendingAndComplete(t *testing.T) {
	require.Len(t, AllWindows, 8)
	for i := 1; i < len(AllWindows); i++ {
		assert.Greater(t, AllWindows[i].Seconds(), AllWindows[i-1].Seconds())
	}
	assert.Equal(t, int64(300), Window5Min.Seconds())
	assert.Equal(t, int64(86400), Window24H.Seconds())
	assert.Equal(t, 24*time.Hour, Window24H.Duration())
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("3h")
	require.NoError(t, err)
	assert.Equal(t, Window3H, w)

	_, err = ParseWindow("2h")
	assert.Error(t, err)
	_, err = ParseWindow("")
	assert.Error(t, err)
}

func TestStorageKeyRoundTrip(t *testing.T) {
	for _, w := range AllWindows {
		key := w.StorageKey()
		assert.Equal(t, "burn"+string(w), key)

		back, ok := WindowFromStorageKey(key)
		require.True(t, ok, key)
		assert.Equal(t, w, back)
	}

	for _, key := range []string{"burn", "burn2h", "lastUpdated", "chainId", ""} {
		_, ok := WindowFromStorageKey(key)
		assert.False(t, ok, key)
	}
}
