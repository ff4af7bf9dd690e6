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

// Package field holds the per-pixel linear-luminance field computed once per
// input image, and bilinear sampling over it. It is built once by the
// orchestrator and treated as immutable by every later stage.
package field

import "gonum.org/v1/gonum/stat"

// Linear is a WxH field of linear-light luminance values in [0,1].
type Linear struct {
	W, H int
	Data []float64
}

// New allocates an empty linear field.
func New(w, h int) *Linear {
	return &Linear{W: w, H: h, Data: make([]float64, w*h)}
}

// At returns the value at integer pixel (x,y), clamped to the image bounds.
func (f *Linear) At(x, y int) float64 {
	if x < 0 {
		x = 0
	} else if x >= f.W {
		x = f.W - 1
	}
	if y < 0 {
		y = 0
	} else if y >= f.H {
		y = f.H - 1
	}
	return f.Data[y*f.W+x]
}

// Sample performs edge-clamped bilinear sampling at a continuous pixel
// coordinate (px,py). Out-of-bounds taps clamp to the nearest edge pixel
// rather than failing, per the exposure integrator's contract.
func (f *Linear) Sample(px, py float64) float64 {
	x0 := int(floor(px))
	y0 := int(floor(py))
	fx := px - float64(x0)
	fy := py - float64(y0)

	v00 := f.At(x0, y0)
	v10 := f.At(x0+1, y0)
	v01 := f.At(x0, y0+1)
	v11 := f.At(x0+1, y0+1)

	top := v00 + (v10-v00)*fx
	bottom := v01 + (v11-v01)*fx
	return top + (bottom-top)*fy
}

func floor(v float64) float64 {
	i := int64(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return float64(i)
}

// Mean returns the arithmetic mean of the field's values, via gonum/stat
// rather than a hand-rolled summation loop.
func (f *Linear) Mean() float64 {
	if len(f.Data) == 0 {
		return 0
	}
	return stat.Mean(f.Data, nil)
}
