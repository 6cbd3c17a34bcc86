package metrics

import "math"

// MethodUsage tallies which ephemeris engine supplied each scanned day.
type MethodUsage struct {
	Primary     int `json:"primary"`
	Fallback    int `json:"fallback"`
	Unavailable int `json:"unavailable"`
}

// Total is the number of days accounted for.
func (u MethodUsage) Total() int {
	return u.Primary + u.Fallback + u.Unavailable
}

// PrimaryRate is the percentage of resolved days served by the primary engine,
// rounded to one decimal. It is 0 when nothing resolved.
func (u MethodUsage) PrimaryRate() float64 {
	resolved := u.Primary + u.Fallback
	if resolved == 0 {
		return 0
	}
	return math.Round(float64(u.Primary)/float64(resolved)*1000) / 10
}
