package domain

import (
	"fmt"
	"strings"
	"time"
)

// EvictionPolicy selects the entry removed when a full cache admits a new key
type EvictionPolicy string

const (
	EvictionLRU    EvictionPolicy = "LRU"
	EvictionFIFO   EvictionPolicy = "FIFO"
	EvictionLFU    EvictionPolicy = "LFU"
	EvictionTTL    EvictionPolicy = "TTL"
	EvictionRandom EvictionPolicy = "RANDOM"
	EvictionNone   EvictionPolicy = "NONE"
)

// ParseEvictionPolicy parses a policy name case-insensitively. The empty
// string selects LRU.
func ParseEvictionPolicy(s string) (EvictionPolicy, error) {
	switch p := EvictionPolicy(strings.ToUpper(strings.TrimSpace(s))); p {
	case "":
		return EvictionLRU, nil
	case EvictionLRU, EvictionFIFO, EvictionLFU, EvictionTTL, EvictionRandom, EvictionNone:
		return p, nil
	default:
		return "", fmt.Errorf("unknown eviction policy: %q", s)
	}
}

// CacheConfig describes a cache instance to build
type CacheConfig struct {
	Name           string
	Provider       string
	Capacity       int
	DefaultTTL     time.Duration
	EvictionPolicy EvictionPolicy
	ProviderConfig map[string]string
}

// CacheStats is a point-in-time snapshot of cache counters
type CacheStats struct {
	Size          int               `json:"size"`
	Hits          uint64            `json:"hits"`
	Misses        uint64            `json:"misses"`
	Evictions     uint64            `json:"evictions"`
	Capacity      int               `json:"capacity,omitempty"`
	CustomMetrics map[string]uint64 `json:"custom_metrics,omitempty"`
}

// HitRatio is hits over total lookups, in percent.
func (s CacheStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}
