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

package grain

import (
	"math"

	"github.com/mlnoga/filmgrain/internal/filmstock"
	"github.com/mlnoga/filmgrain/internal/grainerr"
	"github.com/mlnoga/filmgrain/internal/rng"
)

// attemptsPerSample is k in Bridson-style Poisson-disk sampling.
const attemptsPerSample = 30

// BaseSize computes s_base, the film/ISO-driven base grain radius that later
// stages (kernel bucketing, spatial index sizing) also need, so it is
// exported rather than buried inside Generate.
func BaseSize(iso int, profile filmstock.Profile) float64 {
	return math.Max(0.5, float64(iso)/200.0*profile.SizeFactor)
}

// point2D is a plain (x,y) pair used while building the point process,
// before per-grain properties are assigned.
type point2D struct {
	x, y float64
}

// Generate produces a grain population for a WxH image at the given ISO and
// film type, seeded from r. Never fails on its own account: if Poisson-disk
// sampling stalls before reaching the target count, it falls back to a
// jittered-grid acceptance scheme (see poissonDisk and gridFallback).
func Generate(w, h int, iso int, film filmstock.Type, intensity float64, r *rng.Source) (Set, error) {
	if w <= 0 || h <= 0 {
		return nil, grainerr.New(grainerr.InvalidSettings, "non-positive image dimensions %dx%d", w, h)
	}
	if iso < 100 || iso > 3200 {
		return nil, grainerr.New(grainerr.InvalidSettings, "ISO %d out of range [100,3200]", iso)
	}
	profile, ok := filmstock.Lookup(film)
	if !ok {
		return nil, grainerr.New(grainerr.InvalidSettings, "unknown film type %q", film)
	}
	if intensity <= 0 {
		return nil, grainerr.New(grainerr.InvalidSettings, "grain intensity %g must be > 0", intensity)
	}

	width, height := float64(w), float64(h)
	n := int(math.Round(width * height * float64(iso) / 80000.0 * intensity))
	if n < 1 {
		n = 1
	}

	sBase := BaseSize(iso, profile)
	sMin := 0.5 * sBase
	sMax := 3.0 * sBase
	rMin := sBase * 1.8

	points := poissonDisk(width, height, rMin, n, r)
	if len(points) < int(0.7*float64(n)) {
		points = gridFallback(width, height, rMin, n, r)
	}

	set := make(Set, len(points))
	for i, p := range points {
		u := r.NextF64Unit()
		size := sMin + (sMax-sMin)*u*u*u

		sens := r.Gaussian(0.8, 0.2)
		if sens < 0.4 {
			sens = 0.4
		} else if sens > 1.2 {
			sens = 1.2
		}

		shapeU := r.NextF64Unit()
		shape := shapeU * shapeU

		orientation := r.NextF64Unit() * math.Pi

		threshold := profile.ThresholdBias + r.Gaussian(0, 0.15) - 0.2*(size-sBase)/sBase
		if threshold < 0.1 {
			threshold = 0.1
		} else if threshold > 1.5 {
			threshold = 1.5
		}

		set[i] = Grain{
			X: p.x, Y: p.y, Size: size, Sensitivity: sens,
			Shape: shape, Orientation: orientation, Threshold: threshold,
		}
	}
	return set, nil
}

// poissonDisk runs Bridson-style Poisson-disk sampling over [0,w)x[0,h), with
// minimum distance minDist between samples, targeting roughly targetCount
// points. It never fails: it simply returns whatever it accumulated before
// the active list ran dry.
//
// Candidate rejection uses a uniform background grid of cell size
// minDist/sqrt(2), so each cell holds at most one accepted point and a
// candidate needs only examine its 5x5 cell neighborhood, the same
// dense-grid-over-pointer-structure discipline the spatial index (package
// grid) uses for the final, size-weighted lookup structure.
func poissonDisk(w, h, minDist float64, targetCount int, r *rng.Source) []point2D {
	if minDist <= 0 {
		minDist = 1
	}
	cellSize := minDist / math.Sqrt2
	gw := int(math.Ceil(w/cellSize)) + 1
	gh := int(math.Ceil(h/cellSize)) + 1
	if gw < 1 {
		gw = 1
	}
	if gh < 1 {
		gh = 1
	}

	cellOf := make([]int, gw*gh)
	for i := range cellOf {
		cellOf[i] = -1
	}
	cellIndex := func(x, y float64) (int, int) {
		cx := int(x / cellSize)
		cy := int(y / cellSize)
		if cx < 0 {
			cx = 0
		} else if cx >= gw {
			cx = gw - 1
		}
		if cy < 0 {
			cy = 0
		} else if cy >= gh {
			cy = gh - 1
		}
		return cx, cy
	}

	var points []point2D
	var active []int

	far := func(p point2D) bool {
		cx, cy := cellIndex(p.x, p.y)
		for yy := cy - 2; yy <= cy+2; yy++ {
			if yy < 0 || yy >= gh {
				continue
			}
			for xx := cx - 2; xx <= cx+2; xx++ {
				if xx < 0 || xx >= gw {
					continue
				}
				idx := cellOf[yy*gw+xx]
				if idx < 0 {
					continue
				}
				q := points[idx]
				dx, dy := p.x-q.x, p.y-q.y
				if dx*dx+dy*dy < minDist*minDist {
					return false
				}
			}
		}
		return true
	}

	add := func(p point2D) {
		cx, cy := cellIndex(p.x, p.y)
		points = append(points, p)
		active = append(active, len(points)-1)
		cellOf[cy*gw+cx] = len(points) - 1
	}

	first := point2D{x: r.NextF64Unit() * w, y: r.NextF64Unit() * h}
	add(first)

	for len(active) > 0 && len(points) < targetCount*2 {
		ai := int(r.NextF64Unit() * float64(len(active)))
		if ai >= len(active) {
			ai = len(active) - 1
		}
		baseIdx := active[ai]
		base := points[baseIdx]

		placed := false
		for attempt := 0; attempt < attemptsPerSample; attempt++ {
			radius := minDist * (1 + r.NextF64Unit())
			angle := r.NextF64Unit() * 2 * math.Pi
			cand := point2D{x: base.x + radius*math.Cos(angle), y: base.y + radius*math.Sin(angle)}
			if cand.x < 0 || cand.x >= w || cand.y < 0 || cand.y >= h {
				continue
			}
			if far(cand) {
				add(cand)
				placed = true
				break
			}
		}
		if !placed {
			active[ai] = active[len(active)-1]
			active = active[:len(active)-1]
		}
	}

	return points
}

// gridFallback lays a jittered grid of spacing minDist over [0,w)x[0,h) and
// accepts cells with independent probability until targetCount points have
// been accepted or all cells are exhausted, then tops up to 0.7*targetCount.
// The result never holds more than targetCount points, nor more points than
// the grid has cells: when the grid has fewer than 0.7*targetCount cells, the
// count stays below 0.7*targetCount.
func gridFallback(w, h, minDist float64, targetCount int, r *rng.Source) []point2D {
	if minDist <= 0 {
		minDist = 1
	}
	cols := int(math.Max(1, math.Floor(w/minDist)))
	rows := int(math.Max(1, math.Floor(h/minDist)))
	totalCells := cols * rows

	acceptProb := 1.0
	if totalCells > 0 {
		acceptProb = float64(targetCount) / float64(totalCells)
	}
	if acceptProb > 1 {
		acceptProb = 1
	}

	cellW := w / float64(cols)
	cellH := h / float64(rows)

	// Visit cells in a deterministic, seed-derived random order so the
	// accepted set isn't biased toward the top-left corner when acceptProb<1.
	order := make([]int, totalCells)
	for i := range order {
		order[i] = i
	}
	for i := len(order) - 1; i > 0; i-- {
		j := int(r.NextF64Unit() * float64(i+1))
		if j > i {
			j = i
		}
		order[i], order[j] = order[j], order[i]
	}

	points := make([]point2D, 0, targetCount)
	for _, cell := range order {
		if len(points) >= targetCount {
			break
		}
		if r.NextF64Unit() >= acceptProb {
			continue
		}
		cx, cy := cell%cols, cell/cols
		jitterX := (r.NextF64Unit() - 0.5) * cellW * 0.1
		jitterY := (r.NextF64Unit() - 0.5) * cellH * 0.1
		x := (float64(cx)+0.5)*cellW + jitterX
		y := (float64(cy)+0.5)*cellH + jitterY
		if x < 0 {
			x = 0
		} else if x >= w {
			x = w - 1e-6
		}
		if y < 0 {
			y = 0
		} else if y >= h {
			y = h - 1e-6
		}
		points = append(points, point2D{x: x, y: y})
	}
	// If probability rounding left us short, top up with further random
	// cells until 0.7*targetCount or the cell count is reached, never
	// forcing an error.
	for len(points) < int(0.7*float64(targetCount)) && len(points) < totalCells {
		cx := int(r.NextF64Unit() * float64(cols))
		cy := int(r.NextF64Unit() * float64(rows))
		x := (float64(cx) + 0.5) * cellW
		y := (float64(cy) + 0.5) * cellH
		points = append(points, point2D{x: x, y: y})
	}
	return points
}
