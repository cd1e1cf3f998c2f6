package common

import (
	"fmt"
	"time"
)

// Window is one of the eight fixed trailing durations burn volume is
// aggregated over.
type Window string

const (
	Window5Min  Window = "5min"
	Window15Min Window = "15min"
	Window30Min Window = "30min"
	Window1H    Window = "1h"
	Window3H    Window = "3h"
	Window6H    Window = "6h"
	Window12H   Window = "12h"
	Window24H   Window = "24h"
)

// AllWindows lists every window in ascending duration order.
var AllWindows = []Window{
	Window5Min,
	Window15Min,
	Window30Min,
	Window1H,
	Window3H,
	Window6H,
	Window12H,
	Window24H,
}

var windowSeconds = map[Window]int64{
	Window5Min:  300,
	Window15Min: 900,
	Window30Min: 1800,
	Window1H:    3600,
	Window3H:    10800,
	Window6H:    21600,
	Window12H:   43200,
	Window24H:   86400,
}

func (w Window) Seconds() int64 {
	return windowSeconds[w]
}

func (w Window) Duration() time.Duration {
	return time.Duration(windowSeconds[w]) * time.Second
}

func (w Window) IsValid() bool {
	_, ok := windowSeconds[w]
	return ok
}

// StorageKey is the field name a window's amount is stored and serialized
// under, e.g. "burn5min".
func (w Window) StorageKey() string {
	return "burn" + string(w)
}

func ParseWindow(s string) (Window, error) {
	w := Window(s)
	if !w.IsValid() {
		return "", fmt.Errorf("unknown window %q", s)
	}
	return w, nil
}

// WindowFromStorageKey reverses StorageKey. Returns false for fields that
// are not window amounts.
func WindowFromStorageKey(key string) (Window, bool) {
	if len(key) <= 4 || key[:4] != "burn" {
		return "", false
	}
	w := Window(key[4:])
	return w, w.IsValid()
}
