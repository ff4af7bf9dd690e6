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

// Package grid is a uniform spatial index over a grain population, so a
// per-pixel query only has to look at the grains near that pixel instead of
// the whole population.
//
// Cells hold plain slices of grain ordinals rather than a pointer-chasing
// tree: the same dense, ordinal-indexed discipline the grain package uses
// for per-grain scalars. A uniform grid fits here because cell size is
// bounded by the largest grain rather than by tree depth, and neighbor-of-a-
// point queries are already O(1) cells to visit.
package grid

import (
	"math"

	"github.com/mlnoga/filmgrain/internal/grain"
)

// Grid maps a uniform cell to the ordinals of grains whose influence disk
// intersects it.
type Grid struct {
	cellSize   float64
	cols, rows int
	cells      [][]int32
	Grains     grain.Set
}

// Build constructs the spatial index for set over a WxH image. Cell size is
// max(8, round(2*maxGrainSize)), large enough that a grain's influence disk
// never spans more than its immediate 3x3 cell neighborhood.
func Build(set grain.Set, w, h int) *Grid {
	maxSize := 0.0
	for _, g := range set {
		if g.Size > maxSize {
			maxSize = g.Size
		}
	}
	cellSize := math.Max(8, math.Round(2*maxSize))
	if cellSize < 1 {
		cellSize = 1
	}

	cols := int(math.Ceil(float64(w)/cellSize)) + 1
	rows := int(math.Ceil(float64(h)/cellSize)) + 1
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	g := &Grid{cellSize: cellSize, cols: cols, rows: rows, cells: make([][]int32, cols*rows), Grains: set}

	for i, gr := range set {
		rho := gr.InfluenceRadius()
		minX, maxX := gr.X-rho, gr.X+rho
		minY, maxY := gr.Y-rho, gr.Y+rho

		cx0 := g.clampCol(int(math.Floor(minX / cellSize)))
		cx1 := g.clampCol(int(math.Floor(maxX / cellSize)))
		cy0 := g.clampRow(int(math.Floor(minY / cellSize)))
		cy1 := g.clampRow(int(math.Floor(maxY / cellSize)))

		for cy := cy0; cy <= cy1; cy++ {
			for cx := cx0; cx <= cx1; cx++ {
				idx := cy*cols + cx
				g.cells[idx] = append(g.cells[idx], int32(i))
			}
		}
	}
	return g
}

func (g *Grid) clampCol(c int) int {
	if c < 0 {
		return 0
	}
	if c >= g.cols {
		return g.cols - 1
	}
	return c
}

func (g *Grid) clampRow(c int) int {
	if c < 0 {
		return 0
	}
	if c >= g.rows {
		return g.rows - 1
	}
	return c
}

// CellSize returns the grid's uniform cell size.
func (g *Grid) CellSize() float64 {
	return g.cellSize
}

// NeighborOrdinals returns the grain ordinals registered in the 3x3 cell
// neighborhood around pixel (px,py), deduplicated. The returned slice may be
// reused by the caller as scratch space across calls.
func (g *Grid) NeighborOrdinals(px, py float64, dst []int32) []int32 {
	cx := g.clampCol(int(math.Floor(px / g.cellSize)))
	cy := g.clampRow(int(math.Floor(py / g.cellSize)))

	dst = dst[:0]
	seen := map[int32]bool{}
	for yy := cy - 1; yy <= cy+1; yy++ {
		if yy < 0 || yy >= g.rows {
			continue
		}
		for xx := cx - 1; xx <= cx+1; xx++ {
			if xx < 0 || xx >= g.cols {
				continue
			}
			for _, ord := range g.cells[yy*g.cols+xx] {
				if !seen[ord] {
					seen[ord] = true
					dst = append(dst, ord)
				}
			}
		}
	}
	return dst
}
