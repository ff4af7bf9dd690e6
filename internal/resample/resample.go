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

// Package resample bilinearly up/downscales a single-channel float field, for
// the orchestrator's upscaleFactor handling (process at a higher internal
// resolution, then resample back down to the caller's dimensions).
//
// It builds on golang.org/x/image/draw rather than hand-rolling a second
// bilinear resizer next to the one the exposure integrator already uses for
// per-sample taps (package field). draw.Scaler works over
// image.Image/draw.Image, so values are carried through a 16-bit grayscale
// image for the resample pass only.
package resample

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// grayFloat adapts a []float64 field in [0,1] to image.Image via Gray16, so
// it can be fed to an x/image/draw scaler.
type grayFloat struct {
	w, h int
	data []float64
}

func (g *grayFloat) ColorModel() color.Model { return color.Gray16Model }
func (g *grayFloat) Bounds() image.Rectangle { return image.Rect(0, 0, g.w, g.h) }
func (g *grayFloat) At(x, y int) color.Color {
	v := g.data[y*g.w+x]
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return color.Gray16{Y: uint16(v * 65535)}
}

// Scale resamples src (w x h) to dstW x dstH using bilinear interpolation.
func Scale(data []float64, w, h, dstW, dstH int) []float64 {
	if w == dstW && h == dstH {
		out := make([]float64, len(data))
		copy(out, data)
		return out
	}

	src := &grayFloat{w: w, h: h, data: data}
	dst := image.NewGray16(image.Rect(0, 0, dstW, dstH))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := make([]float64, dstW*dstH)
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			out[y*dstW+x] = float64(dst.Gray16At(x, y).Y) / 65535.0
		}
	}
	return out
}
