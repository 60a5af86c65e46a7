package sdbx

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sdbx/client-go/internal/api"
)

// Custom lifetime bounds, in minutes.
const (
	MinTTLMinutes = 5
	MaxTTLMinutes = 7 * 24 * 60
)

// TTL is how long an upload stays available: one of the presets or a custom
// number of minutes. The zero value means DefaultTTL.
type TTL struct {
	preset  string
	minutes int
}

// Preset lifetimes.
var (
	TTL1Hour   = TTL{preset: "1h"}
	TTL12Hours = TTL{preset: "12h"}
	TTL24Hours = TTL{preset: "24h"}

	DefaultTTL = TTL24Hours
)

var presetDurations = map[string]time.Duration{
	"1h":  time.Hour,
	"12h": 12 * time.Hour,
	"24h": 24 * time.Hour,
}

// TTLMinutes returns a custom lifetime of n minutes.
func TTLMinutes(n int) (TTL, error) {
	if n < MinTTLMinutes || n > MaxTTLMinutes {
		return TTL{}, fmt.Errorf("%w: %d minutes is outside %d-%d", ErrInvalidTTL, n, MinTTLMinutes, MaxTTLMinutes)
	}
	return TTL{minutes: n}, nil
}

// ParseTTL accepts a preset ("1h", "12h", "24h"), a bare number of minutes
// ("90"), or a Go duration ("36h", "2h30m") rounded to whole minutes.
func ParseTTL(s string) (TTL, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if _, ok := presetDurations[s]; ok {
		return TTL{preset: s}, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return TTLMinutes(n)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return TTL{}, fmt.Errorf("%w: %q", ErrInvalidTTL, s)
	}
	return TTLMinutes(int(d.Round(time.Minute) / time.Minute))
}

// Duration returns the lifetime as a time.Duration.
func (t TTL) Duration() time.Duration {
	t = t.orDefault()
	if t.preset != "" {
		return presetDurations[t.preset]
	}
	return time.Duration(t.minutes) * time.Minute
}

func (t TTL) String() string {
	t = t.orDefault()
	if t.preset != "" {
		return t.preset
	}
	return strconv.Itoa(t.minutes) + "m"
}

func (t TTL) orDefault() TTL {
	if t.preset == "" && t.minutes == 0 {
		return DefaultTTL
	}
	return t
}

func (t TTL) wire() api.TTL {
	t = t.orDefault()
	return api.TTL{Preset: t.preset, Minutes: t.minutes}
}
