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

// Package density implements the two-phase development model: phase 1 is a
// per-grain intrinsic density (grain-only, O(N)); phase 2 is a per-pixel
// contribution from a grain at a given distance (O(1) per grain per pixel,
// called only for grains the spatial index already narrowed down to the 3x3
// cell neighborhood of that pixel). Keeping this split is the point: it turns
// what would otherwise be an O(N*W*H) dense evaluation into N scalars plus a
// cheap per-pixel lookup.
package density

import (
	"math"

	"github.com/mlnoga/filmgrain/internal/exposure"
	"github.com/mlnoga/filmgrain/internal/filmstock"
	"github.com/mlnoga/filmgrain/internal/grain"
	"github.com/mlnoga/filmgrain/internal/noise"
	"github.com/mlnoga/filmgrain/internal/rng"
)

// beta is the logistic steepness in the phase-1 development response.
const beta = 0.12

// alpha is the radial falloff steepness in the phase-2 contribution.
const alpha = 1.5

// Noise octave weights and frequency multipliers for the phase-2 texture term.
var noiseWeights = [3]float64{0.5, 0.3, 0.2}
var noiseFrequencies = [3]float64{1, 2, 4}

// IntrinsicMap is a dense, grain-ordinal-indexed intrinsic density map (D0).
type IntrinsicMap []float64

// Phase1 computes the intrinsic density D0(g) for every grain, from its
// exposure and the film's characteristic curve. The per-grain noise term
// xi_g is drawn once via a sub-seed derived from the grain's ordinal, so
// this phase gives identical results whether it is run in one goroutine or
// split across several (see the PRNG concurrency contract in package rng).
func Phase1(set grain.Set, exp exposure.Map, profile filmstock.Profile, intensity float64, seed *rng.Source) IntrinsicMap {
	out := make(IntrinsicMap, len(set))
	for i, g := range set {
		e := exp[i]
		grainRNG := seed.Derive(uint64(i))
		xi := grainRNG.Gaussian(0, 0.05)

		if e+g.Sensitivity < g.Threshold-3*beta {
			out[i] = 0
			continue
		}

		s := logistic((e*g.Sensitivity + xi - g.Threshold) / beta)
		out[i] = s * profile.Curve(e) * intensity
	}
	return out
}

func logistic(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// Table is the shared value-noise lattice used by every grain's phase-2
// texture term; callers build exactly one per orchestrator call.
type Table = noise.Table

// NewTable builds a fresh value-noise table seeded from r.
func NewTable(r *rng.Source) *Table {
	return noise.NewTable(r)
}

// Contribution computes Delta(px,py,g): grain g's phase-2 density
// contribution at pixel (px,py), given its phase-1 intrinsic density d0 and
// the shared noise table. Returns 0 outside the grain's influence radius.
func Contribution(g grain.Grain, ordinal int, d0 float64, px, py float64, table *Table) float64 {
	if d0 <= 0 {
		return 0
	}

	dx, dy := px-g.X, py-g.Y

	cosT, sinT := math.Cos(-g.Orientation), math.Sin(-g.Orientation)
	dxC := dx*cosT - dy*sinT
	dyC := dx*sinT + dy*cosT
	stretchY := 1 - 0.5*g.Shape
	if stretchY < 1e-6 {
		stretchY = 1e-6
	}
	d := math.Sqrt(dxC*dxC + (dyC/stretchY)*(dyC/stretchY))

	if d > 2*g.Size {
		return 0
	}

	ratio := d / g.Size
	f := math.Exp(-(ratio * ratio) * alpha)

	// Offset each grain into its own region of the shared noise lattice,
	// deterministically from its ordinal, so grains don't share identical
	// texture despite sharing one table.
	offX := float64(ordinal%97) * 37.0
	offY := float64((ordinal/97)%97) * 53.0

	n := 0.0
	for k := 0; k < 3; k++ {
		freq := noiseFrequencies[k] / g.Size
		n += noiseWeights[k] * table.Sample2D(px*freq+offX, py*freq+offY)
	}

	return d0 * f * (1 + 0.3*(n-0.5))
}
