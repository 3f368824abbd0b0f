package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/zonekit/deliveryzones/internal/geo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/zonekit/deliveryzones/internal/cache"

// RingCache memoizes annuli keyed by center and radii so repeated renders do
// not redo the trigonometry. It has no eviction: the key space is bounded by
// the distinct zone radii in use, and Reset drops everything when the center
// moves.
type RingCache struct {
	mu          sync.Mutex
	sampleCount int
	annuli      map[string]*geo.Annulus

	hits   metric.Int64Counter
	misses metric.Int64Counter
}

// NewRingCache creates an empty cache generating rings with sampleCount bearings.
func NewRingCache(sampleCount int) *RingCache {
	if sampleCount <= 0 {
		sampleCount = geo.DefaultSampleCount
	}
	c := &RingCache{
		sampleCount: sampleCount,
		annuli:      make(map[string]*geo.Annulus),
	}

	m := otel.Meter(instrumentationName)
	var err error
	if c.hits, err = m.Int64Counter("ringcache.hits",
		metric.WithDescription("Annulus lookups served from cache")); err != nil {
		c.hits = noop.Int64Counter{}
	}
	if c.misses, err = m.Int64Counter("ringcache.misses",
		metric.WithDescription("Annulus lookups that generated rings")); err != nil {
		c.misses = noop.Int64Counter{}
	}
	return c
}

// Key serializes the lookup tuple.
func Key(center geo.LatLng, outerKm, innerKm float64) string {
	return fmt.Sprintf("%v_%v_%v_%v", center.Lat(), center.Lng(), outerKm, innerKm)
}

// Annulus returns the cached annulus for the tuple, building it on a miss.
// The returned value is shared; callers must not mutate it.
func (c *RingCache) Annulus(center geo.LatLng, outerKm, innerKm float64) (*geo.Annulus, error) {
	key := Key(center, outerKm, innerKm)

	c.mu.Lock()
	defer c.mu.Unlock()

	if a, ok := c.annuli[key]; ok {
		c.hits.Add(context.Background(), 1)
		return a, nil
	}

	a, err := geo.BuildAnnulus(center, outerKm, innerKm, c.sampleCount)
	if err != nil {
		return nil, err
	}
	c.annuli[key] = a
	c.misses.Add(context.Background(), 1)
	return a, nil
}

// Peek returns a cached annulus without computing one.
func (c *RingCache) Peek(center geo.LatLng, outerKm, innerKm float64) (*geo.Annulus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.annuli[Key(center, outerKm, innerKm)]
	return a, ok
}

// Annuli lists every cached annulus ordered by outer radius.
func (c *RingCache) Annuli() []*geo.Annulus {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*geo.Annulus, 0, len(c.annuli))
	for _, a := range c.annuli {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OuterKm != out[j].OuterKm {
			return out[i].OuterKm < out[j].OuterKm
		}
		return out[i].InnerKm < out[j].InnerKm
	})
	return out
}

// Len returns the number of cached annuli.
func (c *RingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.annuli)
}

// SampleCount returns the bearing count used for new rings.
func (c *RingCache) SampleCount() int {
	return c.sampleCount
}

// Reset drops every cached annulus.
func (c *RingCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.annuli = make(map[string]*geo.Annulus)
}
