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
	"image/color"
	"testing"

	"github.com/mlnoga/filmgrain/internal/filmstock"
	"github.com/mlnoga/filmgrain/internal/grainerr"
)

func checkerboardImage(w, h int) *Image {
	img := &Image{W: w, H: h, Pix: make([]byte, w*h*4)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := byte(60)
			if (x+y)%2 == 0 {
				v = 200
			}
			i := (y*w + x) * 4
			img.Pix[i] = v
			img.Pix[i+1] = v
			img.Pix[i+2] = v
			img.Pix[i+3] = 255
		}
	}
	return img
}

func testSettings() Settings {
	return Settings{ISO: 400, FilmType: filmstock.Kodak, GrainIntensity: 1.0, UpscaleFactor: 1.0, HasSeed: true, Seed: 7}
}

func TestProcessRejectsDegenerateImage(t *testing.T) {
	img := &Image{W: 0, H: 0}
	_, err := Process(img, testSettings(), nil)
	if err == nil {
		t.Fatal("expected error for degenerate image")
	}
	ge, ok := err.(*grainerr.Error)
	if !ok || ge.Kind != grainerr.DegenerateImage {
		t.Errorf("got %v, want DegenerateImage", err)
	}
}

func TestProcessRejectsNilImage(t *testing.T) {
	_, err := Process(nil, testSettings(), nil)
	if err == nil {
		t.Fatal("expected error for nil image")
	}
}

func TestProcessRejectsMismatchedPixelBuffer(t *testing.T) {
	img := &Image{W: 4, H: 4, Pix: make([]byte, 10)}
	_, err := Process(img, testSettings(), nil)
	if err == nil {
		t.Fatal("expected error for mismatched pixel buffer length")
	}
	ge, ok := err.(*grainerr.Error)
	if !ok || ge.Kind != grainerr.InvalidSettings {
		t.Errorf("got %v, want InvalidSettings", err)
	}
}

func TestProcessRejectsInvalidSettings(t *testing.T) {
	img := checkerboardImage(16, 16)
	bad := testSettings()
	bad.ISO = 50
	_, err := Process(img, bad, nil)
	if err == nil {
		t.Fatal("expected error for out-of-range ISO")
	}
}

func TestProcessProducesCorrectlySizedOutput(t *testing.T) {
	img := checkerboardImage(32, 24)
	out, err := Process(img, testSettings(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.W != 32 || out.H != 24 {
		t.Errorf("output size %dx%d, want 32x24", out.W, out.H)
	}
	if len(out.Pix) != 32*24*4 {
		t.Errorf("output pixel buffer length %d, want %d", len(out.Pix), 32*24*4)
	}
}

func TestProcessPreservesAlpha(t *testing.T) {
	img := checkerboardImage(16, 16)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 128
	}
	out, err := Process(img, testSettings(), nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 3; i < len(out.Pix); i += 4 {
		if out.Pix[i] != 128 {
			t.Fatalf("alpha at byte %d = %d, want 128", i, out.Pix[i])
		}
	}
}

func TestProcessDeterministicWithFixedSeed(t *testing.T) {
	img := checkerboardImage(24, 24)
	a, err := Process(img, testSettings(), nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Process(img, testSettings(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Pix) != len(b.Pix) {
		t.Fatalf("length mismatch: %d vs %d", len(a.Pix), len(b.Pix))
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("byte %d differs: %d vs %d", i, a.Pix[i], b.Pix[i])
		}
	}
}

func TestProcessWithUpscaleFactor(t *testing.T) {
	img := checkerboardImage(16, 16)
	s := testSettings()
	s.UpscaleFactor = 2.0
	out, err := Process(img, s, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.W != 16 || out.H != 16 {
		t.Errorf("output size %dx%d, want 16x16 (caller resolution)", out.W, out.H)
	}
}

func TestFromImageToImageRoundTrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	src.Set(2, 1, color.RGBA{R: 40, G: 50, B: 60, A: 128})

	conv := FromImage(src)
	if conv.W != 3 || conv.H != 2 {
		t.Fatalf("FromImage size %dx%d, want 3x2", conv.W, conv.H)
	}

	back := conv.ToImage()
	r, g, b, a := back.At(0, 0).RGBA()
	if byte(r>>8) != 10 || byte(g>>8) != 20 || byte(b>>8) != 30 || byte(a>>8) != 255 {
		t.Errorf("pixel (0,0) round trip mismatch: %d,%d,%d,%d", r>>8, g>>8, b>>8, a>>8)
	}
}
