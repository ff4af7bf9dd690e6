// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package kernel builds and caches the per-grain sample kernels used to
// integrate exposure over a grain's footprint.
package kernel

import (
	"container/list"
	"math"

	"github.com/mlnoga/filmgrain/internal/grain"
	"github.com/mlnoga/filmgrain/internal/rng"
)

// maxCacheEntries bounds the kernel cache, evicting least-recently-used
// entries beyond it.
const maxCacheEntries = 100

// Sample is one weighted offset within a grain's footprint.
type Sample struct {
	OffsetX, OffsetY float64
	Weight           float64
}

// bucketKey identifies a (size-bucket, shape-bucket) cache entry. Floating
// tuples are bucketed to integers before keying, per the design note that a
// kernel cache keyed directly on floats does not reliably hit.
type bucketKey struct {
	sizeBucket  int
	shapeBucket int
}

// Cache is an LRU-evicted cache of kernels keyed by bucketed (size,shape).
// SamplesFor is not safe for concurrent use; concurrent readers share one
// filled Cache through SamplesForReadOnly (see package exposure).
type Cache struct {
	sizeBucketWidth float64
	entries         map[bucketKey]*list.Element
	order           *list.List // front = most recently used
}

type cacheEntry struct {
	key     bucketKey
	samples []Sample
}

// NewCache creates a kernel cache. sBase is the film/ISO base grain size,
// used to derive the size-bucket width (s_base/4).
func NewCache(sBase float64) *Cache {
	width := sBase / 4
	if width <= 0 {
		width = 0.25
	}
	return &Cache{
		sizeBucketWidth: width,
		entries:         make(map[bucketKey]*list.Element),
		order:           list.New(),
	}
}

// Len reports the current number of cached entries.
func (c *Cache) Len() int {
	return c.order.Len()
}

func (c *Cache) bucketFor(size, shape float64) bucketKey {
	return bucketKey{
		sizeBucket:  int(math.Floor(size / c.sizeBucketWidth)),
		shapeBucket: int(math.Floor(shape / 0.1)),
	}
}

// SamplesFor returns the sample kernel for a grain, building and caching it
// if this (size-bucket, shape-bucket) hasn't been seen yet. theta (the
// grain's orientation) is applied on top of the cached, bucket-canonical
// kernel so that two grains with the same size/shape bucket but different
// orientations still share one cache entry.
func (c *Cache) SamplesFor(g grain.Grain, r *rng.Source) []Sample {
	key := c.bucketFor(g.Size, g.Shape)

	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		return rotate(el.Value.(*cacheEntry).samples, g.Orientation)
	}

	canonical := build(g.Size, g.Shape, r)
	el := c.order.PushFront(&cacheEntry{key: key, samples: canonical})
	c.entries[key] = el

	if c.order.Len() > maxCacheEntries {
		back := c.order.Back()
		if back != nil {
			c.order.Remove(back)
			delete(c.entries, back.Value.(*cacheEntry).key)
		}
	}

	return rotate(canonical, g.Orientation)
}

// SamplesForReadOnly looks up a grain's cached kernel without touching LRU
// order or inserting on a miss. Safe for concurrent callers once every
// bucket the population touches has already been filled by a prior
// sequential pass (see exposure.Integrate's prebuild pass); ok is false if
// the bucket isn't cached, which a caller must handle without mutating this
// Cache from its own goroutine.
func (c *Cache) SamplesForReadOnly(g grain.Grain) (samples []Sample, ok bool) {
	key := c.bucketFor(g.Size, g.Shape)
	el, found := c.entries[key]
	if !found {
		return nil, false
	}
	return rotate(el.Value.(*cacheEntry).samples, g.Orientation), true
}

// sampleCount picks the sample density for a grain's size band: larger
// grains need more samples to keep the kernel's falloff smooth.
func sampleCount(size float64) int {
	switch {
	case size < 1.5:
		return 4
	case size < 3:
		return 8
	default:
		return 16
	}
}

// build generates a canonical (theta=0) kernel for a (size,shape) bucket:
// Gaussian-distributed offsets within the unit disk, stretched by
// (1, 1-0.5*shape), weighted by a Gaussian falloff and normalized to sum 1.
func build(size, shape float64, r *rng.Source) []Sample {
	n := sampleCount(size)
	samples := make([]Sample, n)

	stretchY := 1 - 0.5*shape
	total := 0.0
	for i := 0; i < n; i++ {
		var ox, oy float64
		for {
			ox = r.Gaussian(0, 0.35)
			oy = r.Gaussian(0, 0.35)
			if ox*ox+oy*oy <= 1 {
				break
			}
		}
		oy *= stretchY

		d2 := ox*ox + oy*oy
		w := math.Exp(-d2 / (2 * 0.25))

		samples[i] = Sample{OffsetX: ox * size, OffsetY: oy * size, Weight: w}
		total += w
	}
	if total <= 0 {
		total = 1
	}
	for i := range samples {
		samples[i].Weight /= total
	}
	return samples
}

// rotate applies the grain's orientation theta to a canonical kernel,
// returning a new slice (the cached canonical kernel is never mutated).
func rotate(canonical []Sample, theta float64) []Sample {
	if theta == 0 {
		out := make([]Sample, len(canonical))
		copy(out, canonical)
		return out
	}
	cosT, sinT := math.Cos(theta), math.Sin(theta)
	out := make([]Sample, len(canonical))
	for i, s := range canonical {
		out[i] = Sample{
			OffsetX: s.OffsetX*cosT - s.OffsetY*sinT,
			OffsetY: s.OffsetX*sinT + s.OffsetY*cosT,
			Weight:  s.Weight,
		}
	}
	return out
}
