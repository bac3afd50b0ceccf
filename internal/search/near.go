// Package search ranks geographic entities by great-circle distance from an
// origin. It is deterministic and holds no state, so it is safe for
// concurrent use:
//
//   - Haversine distance via paulmach/orb (orb.EarthRadius sphere)
//   - Functional options for min/max distance and result caps
//   - Stable order for ties (input order wins)
//   - Entities without a usable location are skipped
//
// Callers load candidates from storage and pass a locator that extracts
// coordinates, e.g. domain.NGO.Location.
package search

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Origin is a WGS84 position in degrees.
type Origin struct {
	Lon float64
	Lat float64
}

// Result is a ranked item with its distance from the origin in kilometres.
type Result[T any] struct {
	Item       T
	DistanceKM float64
}

// Locator extracts an item's coordinates. ok is false when the item has no
// usable location.
type Locator[T any] func(T) (lon, lat float64, ok bool)

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minKM float64
	maxKM float64 // 0 = unlimited
	limit int     // 0 = unlimited
}

func defaultConfig() config {
	return config{}
}

// WithMaxDistance keeps items at most km away. Values <= 0 mean unlimited.
func WithMaxDistance(km float64) Option {
	return func(c *config) {
		if km > 0 {
			c.maxKM = km
		}
	}
}

// WithMinDistance keeps items at least km away. Negative values are ignored.
func WithMinDistance(km float64) Option {
	return func(c *config) {
		if km >= 0 {
			c.minKM = km
		}
	}
}

// WithLimit caps the number of results.
func WithLimit(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.limit = n
		}
	}
}

// ----------------------------------------------------------------------------
// Ranking

// Near returns items within the configured distance band, nearest first.
func Near[T any](items []T, loc Locator[T], origin Origin, opts ...Option) []Result[T] {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	out := make([]Result[T], 0, len(items))
	for _, it := range items {
		lon, lat, ok := loc(it)
		if !ok {
			continue
		}
		d := Distance(origin, Origin{Lon: lon, Lat: lat})
		if d < cfg.minKM {
			continue
		}
		if cfg.maxKM > 0 && d > cfg.maxKM {
			continue
		}
		out = append(out, Result[T]{Item: it, DistanceKM: d})
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].DistanceKM < out[b].DistanceKM
	})
	if cfg.limit > 0 && len(out) > cfg.limit {
		out = out[:cfg.limit]
	}
	return out
}

// Nearest returns the single closest item, or ok=false when none qualifies.
func Nearest[T any](items []T, loc Locator[T], origin Origin, opts ...Option) (Result[T], bool) {
	res := Near(items, loc, origin, append(opts, WithLimit(1))...)
	if len(res) == 0 {
		return Result[T]{}, false
	}
	return res[0], true
}

// Distance returns the haversine distance between a and b in kilometres.
func Distance(a, b Origin) float64 {
	return geo.DistanceHaversine(a.point(), b.point()) / 1000
}

func (o Origin) point() orb.Point { return orb.Point{o.Lon, o.Lat} }
