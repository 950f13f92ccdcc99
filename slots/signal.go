// Package slots turns a sparse ONU snapshot into the dense slot view of one PON
// and holds the display policy (signal tier, status category, filtering) applied to it.
package slots

import (
	"math"
	"strconv"
	"strings"
)

// Tier is the display class of an RX power reading.
type Tier int

const (
	TierUnmeasured Tier = iota
	TierWeak
	TierNominal
	TierStrong
)

// NotApplicablePower is the reading a device reports when it has no RX power.
const NotApplicablePower = 101.07

// RX power thresholds in dBm
const (
	WeakThreshold    = -26.0
	NominalThreshold = -20.0
)

// String returns the tier name
func (t Tier) String() string {
	switch t {
	case TierWeak:
		return "weak"
	case TierNominal:
		return "nominal"
	case TierStrong:
		return "strong"
	default:
		return "unmeasured"
	}
}

// Classify maps a raw RX power reading to a tier. It never fails: anything that is
// not a usable negative dBm value is TierUnmeasured.
func Classify(raw string) Tier {
	v, ok := parsePower(raw)
	if !ok || v > 0 || v == NotApplicablePower {
		return TierUnmeasured
	}
	switch {
	case v <= WeakThreshold:
		return TierWeak
	case v <= NominalThreshold:
		return TierNominal
	default:
		return TierStrong
	}
}

func parsePower(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	// Some backends append the unit
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(s, "dBm"), "dbm"))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
