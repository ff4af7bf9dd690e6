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

// Package compositor accumulates per-pixel density from the grains near each
// pixel, applies the Beer-Lambert transmission law, inverts film density
// into a paper response, and scalar-corrects the result's mean lightness
// back toward the input's.
package compositor

import (
	"math"
	"runtime"

	"gonum.org/v1/gonum/stat"

	"github.com/mlnoga/filmgrain/internal/colorspace"
	"github.com/mlnoga/filmgrain/internal/density"
	"github.com/mlnoga/filmgrain/internal/grainerr"
	"github.com/mlnoga/filmgrain/internal/grid"
)

// maxIterations bounds the lightness compensation loop. It is a cheap scalar
// correction applied to the already-composited image, not a fixed-point
// solver re-running the pipeline, so two passes are enough by construction.
const maxIterations = 2

// Paper is a WxH field of paper response values P in [0,1].
type Paper struct {
	W, H int
	Data []float64
}

// Composite accumulates density over every pixel from the grains in its 3x3
// cell neighborhood (via g), converts to transmission/paper response, and
// applies lightness compensation against meanIn (the input field's mean
// linear luminance). tiles controls how many row-bands the image is split
// into for concurrent accumulation (see package grainproc for how that count
// is chosen); tiles<=1 runs single-threaded.
func Composite(g *grid.Grid, intrinsic density.IntrinsicMap, table *density.Table, w, h int, meanIn float64, tiles int) *Paper {
	paper := &Paper{W: w, H: h, Data: make([]float64, w*h)}

	if tiles < 1 {
		tiles = 1
	}
	if tiles > h {
		tiles = h
	}
	if tiles > runtime.NumCPU()*4 {
		tiles = runtime.NumCPU() * 4
	}
	if tiles < 1 {
		tiles = 1
	}

	rowsPerTile := (h + tiles - 1) / tiles
	done := make(chan bool, tiles)
	for t := 0; t < tiles; t++ {
		y0 := t * rowsPerTile
		y1 := y0 + rowsPerTile
		if y1 > h {
			y1 = h
		}
		if y0 >= y1 {
			done <- true
			continue
		}
		go func(y0, y1 int) {
			var neigh []int32
			for y := y0; y < y1; y++ {
				for x := 0; x < w; x++ {
					px, py := float64(x)+0.5, float64(y)+0.5
					neigh = g.NeighborOrdinals(px, py, neigh)

					sigma := 0.0
					for _, ord := range neigh {
						gr := g.Grains[ord]
						sigma += density.Contribution(gr, int(ord), intrinsic[ord], px, py, table)
					}
					if sigma < 0 {
						sigma = 0
					}
					transmission := math.Exp(-sigma)
					paper.Data[y*w+x] = 1 - transmission
				}
			}
			done <- true
		}(y0, y1)
	}
	for t := 0; t < tiles; t++ {
		<-done
	}

	applyLightnessCompensation(paper, meanIn)
	return paper
}

// applyLightnessCompensation mutates paper.Data in place, scaling it by the
// clamped ratio of input to output mean, re-evaluating for at most
// maxIterations rounds.
func applyLightnessCompensation(paper *Paper, meanIn float64) {
	for iter := 0; iter < maxIterations; iter++ {
		meanOut := stat.Mean(paper.Data, nil)
		k, shouldApply := LightnessFactor(meanIn, meanOut)
		if !shouldApply {
			return
		}
		for i := range paper.Data {
			paper.Data[i] *= k
			if paper.Data[i] < 0 {
				paper.Data[i] = 0
			} else if paper.Data[i] > 1 {
				paper.Data[i] = 1
			}
		}
	}
}

// LightnessFactor computes the scalar lightness-compensation factor k for a
// given input mean and output mean, and whether it should be applied at all
// (gated on >1% deviation and on both means being non-degenerate). Exported
// so tests can exercise the boundary behaviors in isolation from a full
// composite.
func LightnessFactor(meanIn, meanOut float64) (k float64, apply bool) {
	if meanOut < 1e-3 {
		return 1.0, false
	}
	if meanIn <= 0 {
		return 1.0, false
	}
	deviation := math.Abs(meanOut-meanIn) / meanIn
	if !(deviation > 0.01 && meanOut > 0.001) {
		return 1.0, false
	}

	raw := meanIn / meanOut
	if meanIn < 0.01 {
		if raw > 1.0 {
			raw = 1.0
		}
		return raw, true
	}

	if raw < 0.01 {
		raw = 0.01
	} else if raw > 100 {
		raw = 100
	}
	return raw, true
}

// CalculateLightnessFactorBytes computes the lightness factor k=mean(orig)/
// mean(proc) between two RGBA byte buffers of identical shape, where mean is
// the buffer's mean linear luminance (alpha ignored). This is the raw,
// caller-facing form of the boundary behaviors LightnessFactor implements
// over already-computed means, validated against the raw buffers first.
func CalculateLightnessFactorBytes(orig, proc []byte) (float64, error) {
	if len(orig) == 0 || len(proc) == 0 {
		return 0, grainerr.New(grainerr.InvalidSettings, "empty buffer")
	}
	if len(orig) != len(proc) {
		return 0, grainerr.New(grainerr.InvalidSettings, "buffer length mismatch: %d vs %d", len(orig), len(proc))
	}
	if len(orig)%4 != 0 {
		return 0, grainerr.New(grainerr.InvalidSettings, "buffer length %d is not a multiple of 4", len(orig))
	}

	meanOrig := meanLinearLuminance(orig)
	meanProc := meanLinearLuminance(proc)

	if meanProc < 1e-3 {
		return 1.0, nil
	}
	raw := meanOrig / meanProc
	if meanOrig < 0.01 {
		if raw > 1.0 {
			raw = 1.0
		}
		return raw, nil
	}
	if raw < 0.01 {
		raw = 0.01
	} else if raw > 100 {
		raw = 100
	}
	return raw, nil
}

func meanLinearLuminance(buf []byte) float64 {
	n := len(buf) / 4
	if n == 0 {
		return 0
	}
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		r := colorspace.SRGBByteToLinear(buf[i*4])
		g := colorspace.SRGBByteToLinear(buf[i*4+1])
		b := colorspace.SRGBByteToLinear(buf[i*4+2])
		values[i] = colorspace.Luminance(r, g, b)
	}
	return stat.Mean(values, nil)
}
