package moonrise

import "errors"

// Error codes carried by apperrors.AppError.
const (
	CodeInvalidInput        = "invalid_input"
	CodeLocationNotFound    = "location_not_found"
	CodeResolverUnavailable = "resolver_unavailable"
	CodeResolverMisconfig   = "resolver_misconfigured"
	CodeScanCancelled       = "scan_cancelled"
	CodeScanFailed          = "scan_failed"
)

// LocationGuidance is returned when a place cannot be geocoded.
const LocationGuidance = "Location not found. Please check spelling and try: ZIP code (90210), City (Los Angeles), or City, State (Los Angeles, CA)"

// ErrEngineFailure marks an ephemeris computation that is undefined for its inputs.
// The scanner recovers from it per day; it never aborts a scan.
var ErrEngineFailure = errors.New("ephemeris engine failure")

// ErrLocationNotFound is returned by resolvers when the query matches no place.
var ErrLocationNotFound = errors.New("location not found")

// ErrResolverMisconfigured is returned by resolvers that cannot run at all, such as
// one built without credentials. Retrying will not help.
var ErrResolverMisconfigured = errors.New("location resolver misconfigured")
