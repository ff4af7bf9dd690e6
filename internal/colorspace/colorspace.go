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

// Package colorspace converts between sRGB and linear light, and computes
// BT.709 luminance. The gamma companding is delegated to go-colorful rather
// than hand-rolling the piecewise power curve a second time.
package colorspace

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// SRGBToLinear decodes one sRGB-encoded channel value in [0,1] to linear light.
func SRGBToLinear(v float64) float64 {
	_, lin, _ := colorful.Color{R: v, G: v, B: v}.LinearRgb()
	return lin
}

// LinearToSRGB encodes one linear-light channel value in [0,1] to sRGB, clamped
// to [0,1] before the caller scales it to 8 bits.
func LinearToSRGB(v float64) float64 {
	c := colorful.LinearRgb(v, v, v)
	r := c.R
	if r < 0 {
		r = 0
	} else if r > 1 {
		r = 1
	}
	return r
}

// SRGBByteToLinear decodes an 8-bit sRGB channel value to linear light.
func SRGBByteToLinear(b byte) float64 {
	return SRGBToLinear(float64(b) / 255.0)
}

// LinearToSRGBByte encodes a linear-light channel value to an 8-bit sRGB
// value, rounding to nearest.
func LinearToSRGBByte(v float64) byte {
	s := LinearToSRGB(v)
	return byte(s*255.0 + 0.5)
}

// Rec709 weights for luminance on linear light, BT.709/sRGB primaries.
const (
	WeightR = 0.2126
	WeightG = 0.7152
	WeightB = 0.0722
)

// Luminance computes BT.709 luminance from linear-light R,G,B.
//
// This is the same Y row go-colorful's Color.Xyz computes internally after
// linearizing an sRGB-encoded color; since the inputs here are already
// linear, applying that matrix row directly avoids round-tripping them back
// through gamma encode/decode just to reach the same three multiplies.
func Luminance(r, g, b float64) float64 {
	return WeightR*r + WeightG*g + WeightB*b
}
