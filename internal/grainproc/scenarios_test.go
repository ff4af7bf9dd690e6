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
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/mlnoga/filmgrain/internal/colorspace"
	"github.com/mlnoga/filmgrain/internal/filmstock"
)

func flatImage(w, h int, gray byte) *Image {
	img := &Image{W: w, H: h, Pix: make([]byte, w*h*4)}
	for i := 0; i < w*h; i++ {
		img.Pix[i*4] = gray
		img.Pix[i*4+1] = gray
		img.Pix[i*4+2] = gray
		img.Pix[i*4+3] = 255
	}
	return img
}

func linearMeanAndStdDev(img *Image) (mean, stddev float64) {
	n := img.W * img.H
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = colorspace.SRGBByteToLinear(img.Pix[i*4])
	}
	mean = stat.Mean(values, nil)
	stddev = stat.StdDev(values, nil)
	return mean, stddev
}

func scenarioSettings() Settings {
	return Settings{ISO: 400, FilmType: filmstock.Kodak, GrainIntensity: 1.0, UpscaleFactor: 1.0, HasSeed: true, Seed: 12345}
}

func TestScenarioMidGrayHasGrainPresent(t *testing.T) {
	img := flatImage(50, 50, 188) // ~linear 0.5
	out, err := Process(img, scenarioSettings(), nil)
	if err != nil {
		t.Fatal(err)
	}
	mean, stddev := linearMeanAndStdDev(out)
	if mean < 0.35 || mean > 0.65 {
		t.Errorf("mid-gray output mean = %f, want roughly in [0.35,0.65]", mean)
	}
	if stddev <= 0 {
		t.Error("mid-gray output has zero standard deviation, want grain texture present")
	}
}

func TestScenarioBlackStaysDark(t *testing.T) {
	img := flatImage(50, 50, 0)
	out, err := Process(img, scenarioSettings(), nil)
	if err != nil {
		t.Fatal(err)
	}
	mean, _ := linearMeanAndStdDev(out)
	if mean > 0.05 {
		t.Errorf("black input output mean = %f, want < 0.05", mean)
	}
}

func TestScenarioWhiteStaysLight(t *testing.T) {
	img := flatImage(50, 50, 255)
	out, err := Process(img, scenarioSettings(), nil)
	if err != nil {
		t.Fatal(err)
	}
	mean, _ := linearMeanAndStdDev(out)
	if mean < 0.8 {
		t.Errorf("white input output mean = %f, want > 0.8", mean)
	}
}

func TestScenarioDeterministicAcrossRuns(t *testing.T) {
	img := flatImage(50, 50, 128)
	a, err := Process(img, scenarioSettings(), nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Process(img, scenarioSettings(), nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("byte %d differs across identical runs: %d vs %d", i, a.Pix[i], b.Pix[i])
		}
	}
}

func TestScenarioFilmTypesAreDistinct(t *testing.T) {
	img := flatImage(50, 50, 128)

	base := scenarioSettings()
	kodak, err := Process(img, base, nil)
	if err != nil {
		t.Fatal(err)
	}
	fujiSettings := base
	fujiSettings.FilmType = filmstock.Fuji
	fuji, err := Process(img, fujiSettings, nil)
	if err != nil {
		t.Fatal(err)
	}
	ilfordSettings := base
	ilfordSettings.FilmType = filmstock.Ilford
	ilford, err := Process(img, ilfordSettings, nil)
	if err != nil {
		t.Fatal(err)
	}

	if bytesEqual(kodak.Pix, fuji.Pix) {
		t.Error("kodak and fuji outputs are byte-identical, want distinct")
	}
	if bytesEqual(kodak.Pix, ilford.Pix) {
		t.Error("kodak and ilford outputs are byte-identical, want distinct")
	}
	if bytesEqual(fuji.Pix, ilford.Pix) {
		t.Error("fuji and ilford outputs are byte-identical, want distinct")
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
