package moonrise

import "math"

// Phase names, in synodic order.
const (
	PhaseNew            = "New Moon"
	PhaseWaxingCrescent = "Waxing Crescent"
	PhaseFirstQuarter   = "First Quarter"
	PhaseWaxingGibbous  = "Waxing Gibbous"
	PhaseFull           = "Full Moon"
	PhaseWaningGibbous  = "Waning Gibbous"
	PhaseLastQuarter    = "Last Quarter"
	PhaseWaningCrescent = "Waning Crescent"
)

type phaseBand struct {
	upper float64 // exclusive
	name  string
}

// phaseTable gives each principal phase a band of 0.03 either side of
// 0, 0.25, 0.5 and 0.75. New Moon owns both ends of the cycle.
var phaseTable = []phaseBand{
	{0.03, PhaseNew},
	{0.22, PhaseWaxingCrescent},
	{0.28, PhaseFirstQuarter},
	{0.47, PhaseWaxingGibbous},
	{0.53, PhaseFull},
	{0.72, PhaseWaningGibbous},
	{0.78, PhaseLastQuarter},
	{0.97, PhaseWaningCrescent},
	{1, PhaseNew},
}

// PhaseName maps a phase fraction in [0,1) to one of the eight named phases.
// Values outside the range are wrapped; NaN reads as New Moon.
func PhaseName(fraction float64) string {
	f := NormalizePhase(fraction)
	for _, band := range phaseTable {
		if f < band.upper {
			return band.name
		}
	}
	return PhaseNew
}

// NormalizePhase wraps any finite value into [0,1).
func NormalizePhase(fraction float64) float64 {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return 0
	}
	f := fraction - math.Floor(fraction)
	if f >= 1 {
		f = 0
	}
	return f
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
