package moonrise

import (
	"time"

	"github.com/yanqian/moonwatch/pkg/metrics"
)

// Method tags which engine produced the data behind a NightEvent.
type Method string

const (
	MethodPrimary  Method = "primary"
	MethodFallback Method = "fallback"
)

// ObserverLocation is the resolved place a scan runs for.
type ObserverLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"`
	Timezone  string  `json:"timezone"`

	Name              string `json:"name,omitempty"`
	State             string `json:"state,omitempty"`
	Country           string `json:"country,omitempty"`
	FormattedLocation string `json:"formattedLocation,omitempty"`
}

// CelestialEvent holds one body's horizon and meridian crossings for one civil day.
// Nil fields mean the body did not cross within the search window.
type CelestialEvent struct {
	Rise    *time.Time
	Transit *time.Time
	Set     *time.Time
}

// MoonIllumination describes the lunar phase at the day's anchor instant.
type MoonIllumination struct {
	// PhaseFraction runs over [0,1): 0 new, 0.25 first quarter, 0.5 full.
	PhaseFraction float64
	// Fraction of the disk lit, 0..1.
	Illuminated float64
	// PhaseAngle is the Sun-Moon-Earth angle in degrees, [0,180].
	PhaseAngle float64
}

// IlluminatedPercent rounds the lit fraction to a percentage with one decimal.
func (m MoonIllumination) IlluminatedPercent() float64 {
	return roundTo(m.Illuminated*100, 1)
}

// DayEphemeris is an engine's answer for one civil day.
type DayEphemeris struct {
	Date         time.Time
	Anchor       time.Time
	Sun          CelestialEvent
	Moon         CelestialEvent
	Illumination MoonIllumination
	Engine       string
}

// NightEvent is a watchable moonrise. Clock strings are local HH:MM; the matching
// UTC instants are kept for callers that need day arithmetic.
type NightEvent struct {
	Date             string  `json:"date"`
	Sunset           string  `json:"sunset"`
	Moonrise         string  `json:"moonrise"`
	Moonset          string  `json:"moonset"`
	Sunrise          string  `json:"sunrise"`
	MoonPhase        float64 `json:"moonPhase"`
	MoonIllumination float64 `json:"moonIllumination"`
	MoonPhaseName    string  `json:"moonPhaseName"`
	Method           Method  `json:"calculationMethod"`

	SunsetAt   time.Time  `json:"-"`
	MoonriseAt time.Time  `json:"-"`
	MoonsetAt  *time.Time `json:"-"`
	SunriseAt  time.Time  `json:"-"`
}

// ScanInput is what the range scanner needs once the location is known.
type ScanInput struct {
	Location ObserverLocation
	From     time.Time
	To       time.Time
	Cutoff   Cutoff
}

// DateRange echoes the civil dates that were scanned.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ScanResult aggregates the watchable nights of a range.
type ScanResult struct {
	Location     ObserverLocation    `json:"location"`
	DateRange    DateRange           `json:"dateRange"`
	DaysSearched int                 `json:"daysSearched"`
	TotalEvents  int                 `json:"totalEvents"`
	Usage        metrics.MethodUsage `json:"calculationStats"`
	Events       []NightEvent        `json:"events"`
}

// Request captures the payload accepted by the moonrise service.
type Request struct {
	Location string `json:"location" form:"location" binding:"required"`
	FromDate string `json:"fromDate" form:"fromDate"`
	ToDate   string `json:"toDate" form:"toDate"`
	Days     int    `json:"days" form:"days" binding:"omitempty,min=1"`
	Bedtime  string `json:"bedtime" form:"bedtime" binding:"omitempty,bedtime"`
}

// Response is serialized back to API consumers.
type Response struct {
	Location          string              `json:"location"`
	Latitude          float64             `json:"lat"`
	Longitude         float64             `json:"long"`
	State             string              `json:"state"`
	Country           string              `json:"country"`
	Timezone          string              `json:"timezone"`
	LocationInput     string              `json:"locationInput"`
	FormattedLocation string              `json:"formattedLocation"`
	DateRange         DateRange           `json:"dateRange"`
	DaysSearched      int                 `json:"daysSearched"`
	TotalEvents       int                 `json:"totalEvents"`
	Bedtime           string              `json:"bedtime"`
	CalculationStats  metrics.MethodUsage `json:"calculationStats"`
	SuccessRate       float64             `json:"successRate"`
	Events            []NightEvent        `json:"events"`
}

// Config wires runtime limits for the domain.
type Config struct {
	MaxDays     int
	DefaultDays int
	Workers     int
	CacheTTL    time.Duration
}
