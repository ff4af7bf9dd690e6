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

// Package grain holds the grain population data model and its generator.
//
// Per-grain scalars (exposure, intrinsic density, ...) computed by later
// stages are kept as dense arrays indexed by grain ordinal, not as maps keyed
// by grain identity: a plain []float64 the same length as the Set needs no
// hashing and iterates cache-friendly.
package grain

// Grain is immutable after creation.
type Grain struct {
	X, Y        float64 // position in pixel coordinates, within [0,W)x[0,H)
	Size        float64 // radius, pixels; > 0
	Sensitivity float64 // in [0.4, 1.2]
	Shape       float64 // in [0,1]; 0=circular, 1=highly elliptical
	Orientation float64 // in [0, pi)
	Threshold   float64 // development threshold tau, in [0.1, 1.5]
}

// Set is an ordered collection of grains. Order is whatever the generator
// emitted; for a fixed seed that order is stable, so downstream stages that
// iterate Set in order stay deterministic too.
type Set []Grain

// InfluenceRadius is the radius outside of which a grain's phase-2
// contribution is defined to be zero (rho = 2*s, per the spatial index and
// density-falloff sections).
func (g Grain) InfluenceRadius() float64 {
	return 2 * g.Size
}
