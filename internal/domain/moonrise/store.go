package moonrise

import (
	"context"
	"time"
)

// LocationStore caches resolved locations keyed by the normalized query so repeated
// searches for the same place skip the geocoding API.
type LocationStore interface {
	GetLocation(ctx context.Context, key string) (ObserverLocation, bool, error)
	SaveLocation(ctx context.Context, key string, loc ObserverLocation, ttl time.Duration) error
}
