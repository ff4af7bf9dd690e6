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

package grainproc

import (
	"image"
)

// Image is a raster of WxH RGBA pixels, sRGB primaries, 4 bytes/pixel.
// It is the core's only input/output type; decoding/encoding an actual image
// file format is an external collaborator's job (cmd/filmgrain, internal/rest).
type Image struct {
	W, H int
	Pix  []byte // length W*H*4, row-major, R,G,B,A per pixel
}

// FromImage converts a decoded stdlib image into the core's Image type.
// Conversion, not processing, so it lives alongside Image rather than in
// the pipeline itself; callers decode with image/jpeg or image/png first.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := &Image{W: w, H: h, Pix: make([]byte, w*h*4)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, a := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			i := (y*w + x) * 4
			out.Pix[i] = byte(r >> 8)
			out.Pix[i+1] = byte(g >> 8)
			out.Pix[i+2] = byte(bl >> 8)
			out.Pix[i+3] = byte(a >> 8)
		}
	}
	return out
}

// ToImage wraps Pix as a standard image/color.RGBA-backed image.Image,
// ready for image/jpeg or image/png encoding.
func (img *Image) ToImage() image.Image {
	out := image.NewRGBA(image.Rect(0, 0, img.W, img.H))
	copy(out.Pix, img.Pix)
	return out
}
