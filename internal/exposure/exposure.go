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

// Package exposure integrates each grain's footprint against the linear
// luminance field through its cached sample kernel.
package exposure

import (
	"github.com/mlnoga/filmgrain/internal/field"
	"github.com/mlnoga/filmgrain/internal/grain"
	"github.com/mlnoga/filmgrain/internal/kernel"
	"github.com/mlnoga/filmgrain/internal/rng"
)

// maxExposure bounds exposure output to keep downstream density finite.
const maxExposure = 4.0

// Map is a dense, grain-ordinal-indexed exposure map.
type Map []float64

// Integrate computes the exposure map for set against f, parallelizing the
// per-grain kernel sampling across workers (workers > 1 parallelizes across
// grains).
//
// The PRNG is only consumed while filling the kernel cache (bucket misses),
// and that fill happens in one sequential pass over set, in ascending grain
// ordinal order, before any worker goroutine starts: each miss is seeded via
// mainRNG.Derive(ordinal) of the grain that reaches that (size,shape) bucket
// first in the population's fixed order. Which bucket a grain resolves to
// therefore depends only on the grain population itself, never on worker
// count or goroutine scheduling. The parallel phase that follows only reads
// the now-fully-built cache.
func Integrate(set grain.Set, f *field.Linear, sBase float64, mainRNG *rng.Source, workers int) Map {
	n := len(set)
	out := make(Map, n)
	if n == 0 {
		return out
	}

	cache := kernel.NewCache(sBase)
	for i, g := range set {
		cache.SamplesFor(g, mainRNG.Derive(uint64(i)))
	}

	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	chunk := (n + workers - 1) / workers
	done := make(chan bool, workers)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			done <- true
			continue
		}
		go func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out[i] = integrateOne(i, set[i], f, cache, sBase, mainRNG)
			}
			done <- true
		}(lo, hi)
	}
	for w := 0; w < workers; w++ {
		<-done
	}
	return out
}

func integrateOne(i int, g grain.Grain, f *field.Linear, cache *kernel.Cache, sBase float64, mainRNG *rng.Source) float64 {
	samples, ok := cache.SamplesForReadOnly(g)
	if !ok {
		// Only reachable if the population spans more distinct (size,shape)
		// buckets than the cache retains; build a local, uncached kernel
		// rather than mutate the shared cache from a worker goroutine.
		local := kernel.NewCache(sBase)
		samples = local.SamplesFor(g, mainRNG.Derive(uint64(i)))
	}
	sum := 0.0
	for _, s := range samples {
		sum += s.Weight * f.Sample(g.X+s.OffsetX, g.Y+s.OffsetY)
	}
	if sum < 0 {
		return 0
	}
	if sum > maxExposure {
		return maxExposure
	}
	return sum
}
