package core

import (
	"errors"
	"math"
	"regexp"
	"strconv"
)

// ConverterTolerance is the largest voltage gap, in volts, that a device is
// assumed to tolerate without a converter.
const ConverterTolerance = 30

// Pre-compiled pattern for integer runs inside voltage labels like "110 V, 220 V".
var voltageNumberRegex = regexp.MustCompile(`[0-9]+`)

// CompatibilityResult is the verdict for travelling from one country to another.
type CompatibilityResult struct {
	PlugCompatible bool `json:"plugCompatible"`
	NeedsAdapter   bool `json:"needsAdapter"`
	NeedsConverter bool `json:"needsConverter"`
}

// Evaluate decides whether a traveller from home needs a plug adapter and/or
// a voltage converter at dest.
//
// A converter is needed when at least one home voltage is more than
// ConverterTolerance away from every destination voltage. When either side
// has no usable voltage the answer is false.
func Evaluate(home, dest Profile) CompatibilityResult {
	plugCompatible := sharesPlug(home.Plugs, dest.Plugs)

	return CompatibilityResult{
		PlugCompatible: plugCompatible,
		NeedsAdapter:   !plugCompatible,
		NeedsConverter: needsConverter(Volts(home.Voltages), Volts(dest.Voltages)),
	}
}

func sharesPlug(home, dest []string) bool {
	if len(home) == 0 || len(dest) == 0 {
		return false
	}
	destSet := make(map[string]struct{}, len(dest))
	for _, p := range dest {
		destSet[p] = struct{}{}
	}
	for _, p := range home {
		if _, ok := destSet[p]; ok {
			return true
		}
	}
	return false
}

func needsConverter(homeVolts, destVolts []int) bool {
	if len(destVolts) == 0 {
		return false
	}
	for _, hv := range homeVolts {
		if clashesWithAll(hv, destVolts) {
			return true
		}
	}
	return false
}

// clashesWithAll reports whether v is out of tolerance with every value in others.
func clashesWithAll(v int, others []int) bool {
	for _, o := range others {
		if abs(v-o) <= ConverterTolerance {
			return false
		}
	}
	return true
}

// Volts extracts every integer embedded in the voltage labels. A compound
// label such as "110 V, 220 V" contributes both numbers. Duplicates are kept.
// Numbers too large for an int are clamped to math.MaxInt.
func Volts(labels []string) []int {
	var volts []int
	for _, label := range labels {
		for _, m := range voltageNumberRegex.FindAllString(label, -1) {
			n, err := strconv.Atoi(m)
			if errors.Is(err, strconv.ErrRange) {
				n = math.MaxInt
			} else if err != nil {
				continue
			}
			volts = append(volts, n)
		}
	}
	return volts
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
