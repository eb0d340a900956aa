package calculator

import "math"

// StandardBarWeight is the weight of an Olympic bar in pounds.
const StandardBarWeight = 45.0

// MaxWeight is the heaviest target accepted, in pounds.
const MaxWeight = 10000.0

// exactTolerance is the largest gap between achieved and target weight that
// still counts as an exact match.
const exactTolerance = 0.01

var plateSet = []float64{45, 25, 10, 5, 2.5}

// Plates returns a copy of the admissible plate denominations, heaviest first.
func Plates() []float64 {
	out := make([]float64, len(plateSet))
	copy(out, plateSet)
	return out
}

// Mode selects how a target weight is spread over plates.
type Mode string

const (
	// ModeTotal decomposes the whole target into plates with no bar.
	ModeTotal Mode = "total"
	// ModeBarbell subtracts the bar and mirrors the plates on both sides.
	ModeBarbell Mode = "barbell"
)

// Modes lists the supported modes in display order.
func Modes() []Mode {
	return []Mode{ModeTotal, ModeBarbell}
}

// BarWeight reports the bar weight implied by the mode.
func (m Mode) BarWeight() float64 {
	if m == ModeBarbell {
		return StandardBarWeight
	}
	return 0
}

// PlateCount is the number of plates of one denomination.
type PlateCount struct {
	Weight float64 `json:"weight"`
	Count  int     `json:"count"`
}

// Result is the outcome of a single decomposition. In barbell mode the plate
// counts are per side.
type Result struct {
	Plates         []PlateCount `json:"plates"`
	BarWeight      float64      `json:"barWeight"`
	TargetWeight   float64      `json:"targetWeight"`
	AchievedWeight float64      `json:"achievedWeight"`
	ExactMatch     bool         `json:"exactMatch"`
	TotalPlates    int          `json:"totalPlates"`
}

// Count returns how many plates of the given weight the result uses.
func (r Result) Count(weight float64) int {
	for _, p := range r.Plates {
		if p.Weight == weight {
			return p.Count
		}
	}
	return 0
}

// Difference is the achieved weight minus the target weight.
func (r Result) Difference() float64 {
	return r.AchievedWeight - r.TargetWeight
}

// PlateWeight is the combined weight of the plates listed in the result,
// counted once (one side in barbell mode).
func (r Result) PlateWeight() float64 {
	total := 0.0
	for _, p := range r.Plates {
		total += p.Weight * float64(p.Count)
	}
	return total
}

// Clone returns a deep copy so callers can hold results without sharing the
// plate slice.
func (r Result) Clone() Result {
	out := r
	out.Plates = make([]PlateCount, len(r.Plates))
	copy(out.Plates, r.Plates)
	return out
}

// Calculator describes the behaviour required from a plate calculator.
type Calculator interface {
	Calculate(target float64, mode Mode) (Result, error)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
