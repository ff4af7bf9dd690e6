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

// Package noise implements deterministic lattice value noise for the density
// calculator's per-pixel grain texture. One 256-entry table is built once
// per call from the pipeline's seeded PRNG and indexed per grain/pixel, the
// same "precompute a table, index into it per unit of work" shape the
// kernel cache uses (package kernel) rather than regenerating randomness at
// every lookup.
package noise

import "github.com/mlnoga/filmgrain/internal/rng"

const tableSize = 256
const tableMask = tableSize - 1

// Table is a deterministic 2D value-noise lattice.
type Table struct {
	perm   [tableSize * 2]int
	values [tableSize]float64
}

// NewTable builds a value-noise table seeded from r.
func NewTable(r *rng.Source) *Table {
	t := &Table{}
	for i := 0; i < tableSize; i++ {
		t.perm[i] = i
		t.values[i] = r.NextF64Unit()
	}
	for i := tableSize - 1; i > 0; i-- {
		j := int(r.NextF64Unit() * float64(i+1))
		if j > i {
			j = i
		}
		t.perm[i], t.perm[j] = t.perm[j], t.perm[i]
	}
	for i := 0; i < tableSize; i++ {
		t.perm[tableSize+i] = t.perm[i]
	}
	return t
}

func (t *Table) latticeValue(ix, iy int) float64 {
	a := t.perm[ix&tableMask]
	b := t.perm[(a+iy)&tableMask]
	return t.values[b&tableMask]
}

func fade(x float64) float64 {
	// smoothstep, 3x^2-2x^3
	return x * x * (3 - 2*x)
}

func lerp(a, b, f float64) float64 {
	return a + (b-a)*f
}

// Sample2D returns a value-noise sample in [0,1) at continuous coordinate
// (x,y), via bilinear interpolation between the four surrounding lattice
// points with a smoothstep fade curve.
func (t *Table) Sample2D(x, y float64) float64 {
	ix, iy := int(floor(x)), int(floor(y))
	fx, fy := x-float64(ix), y-float64(iy)

	v00 := t.latticeValue(ix, iy)
	v10 := t.latticeValue(ix+1, iy)
	v01 := t.latticeValue(ix, iy+1)
	v11 := t.latticeValue(ix+1, iy+1)

	u := fade(fx)
	v := fade(fy)

	top := lerp(v00, v10, u)
	bottom := lerp(v01, v11, u)
	return lerp(top, bottom, v)
}

func floor(v float64) float64 {
	i := int64(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return float64(i)
}
