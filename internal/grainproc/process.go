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

// Package grainproc is the orchestrator: it drives every other package in
// this module through one call, validates input, and is the only package an
// external collaborator (cmd/filmgrain, internal/rest) needs to import.
package grainproc

import (
	"fmt"
	"io"
	"io/ioutil"

	"github.com/mlnoga/filmgrain/internal/colorspace"
	"github.com/mlnoga/filmgrain/internal/compositor"
	"github.com/mlnoga/filmgrain/internal/density"
	"github.com/mlnoga/filmgrain/internal/exposure"
	"github.com/mlnoga/filmgrain/internal/field"
	"github.com/mlnoga/filmgrain/internal/filmstock"
	"github.com/mlnoga/filmgrain/internal/grain"
	"github.com/mlnoga/filmgrain/internal/grainerr"
	"github.com/mlnoga/filmgrain/internal/grid"
	"github.com/mlnoga/filmgrain/internal/resample"
	"github.com/mlnoga/filmgrain/internal/rng"
)

// Process runs the full pipeline once: validate, convert to linear light,
// generate and develop grains, composite, and convert back to sRGB bytes.
// logWriter receives fmt.Fprintf progress lines (start, upscale, grain count,
// compositing, done); pass ioutil.Discard to silence it.
func Process(img *Image, settings Settings, logWriter io.Writer) (*Image, error) {
	if logWriter == nil {
		logWriter = ioutil.Discard
	}

	if img == nil || img.W*img.H == 0 {
		return nil, grainerr.New(grainerr.DegenerateImage, "image has zero area")
	}
	if img.W <= 0 || img.H <= 0 {
		return nil, grainerr.New(grainerr.InvalidSettings, "non-positive image dimensions %dx%d", img.W, img.H)
	}
	if len(img.Pix) != img.W*img.H*4 {
		return nil, grainerr.New(grainerr.InvalidSettings, "pixel buffer length %d does not match %dx%d RGBA", len(img.Pix), img.W, img.H)
	}

	settings = settings.withDefaults()
	if err := settings.validate(); err != nil {
		return nil, err
	}
	profile, _ := filmstock.Lookup(settings.FilmType) // validated above

	seed := settings.seedOrDefault(img.W, img.H)
	mainRNG := rng.New(seed)
	fmt.Fprintf(logWriter, "0: processing %dx%d image, iso=%d film=%s seed=%d\n", img.W, img.H, settings.ISO, settings.FilmType, seed)

	// sRGB -> linear luminance field, at the caller's resolution.
	baseField := field.New(img.W, img.H)
	for i := 0; i < img.W*img.H; i++ {
		r := colorspace.SRGBByteToLinear(img.Pix[i*4])
		g := colorspace.SRGBByteToLinear(img.Pix[i*4+1])
		b := colorspace.SRGBByteToLinear(img.Pix[i*4+2])
		baseField.Data[i] = colorspace.Luminance(r, g, b)
	}

	// Upscale before processing, if requested.
	workW, workH := img.W, img.H
	workField := baseField
	if settings.UpscaleFactor > 1 {
		workW = int(float64(img.W) * settings.UpscaleFactor)
		workH = int(float64(img.H) * settings.UpscaleFactor)
		if workW < 1 {
			workW = 1
		}
		if workH < 1 {
			workH = 1
		}
		workField = &field.Linear{W: workW, H: workH, Data: resample.Scale(baseField.Data, img.W, img.H, workW, workH)}
		fmt.Fprintf(logWriter, "0: upscaled to %dx%d for processing\n", workW, workH)
	}

	meanIn := baseField.Mean()

	// Generate grains and build the spatial index.
	set, err := grain.Generate(workW, workH, settings.ISO, settings.FilmType, settings.GrainIntensity, mainRNG.Derive(1))
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(logWriter, "0: generated %d grains\n", len(set))
	sBase := grain.BaseSize(settings.ISO, profile)
	spatialGrid := grid.Build(set, workW, workH)

	tune := chooseTuning(len(set), workW, workH)

	// Kernel-sampled exposure integration.
	expMap := exposure.Integrate(set, workField, sBase, mainRNG.Derive(2), tune.exposureWorkers)

	// Per-grain intrinsic density.
	intrinsic := density.Phase1(set, expMap, profile, settings.GrainIntensity, mainRNG.Derive(3))

	// Per-pixel accumulation, compositing, lightness compensation.
	noiseTable := density.NewTable(mainRNG.Derive(4))
	paper := compositor.Composite(spatialGrid, intrinsic, noiseTable, workW, workH, meanIn, tune.compositeTiles)
	fmt.Fprintf(logWriter, "0: composited at %dx%d\n", workW, workH)

	// Downscale back to the caller's resolution, if upscaled.
	outData := paper.Data
	if workW != img.W || workH != img.H {
		outData = resample.Scale(paper.Data, workW, workH, img.W, img.H)
	}

	out := &Image{W: img.W, H: img.H, Pix: make([]byte, len(img.Pix))}
	for i := 0; i < img.W*img.H; i++ {
		v := colorspace.LinearToSRGBByte(outData[i])
		out.Pix[i*4] = v
		out.Pix[i*4+1] = v
		out.Pix[i*4+2] = v
		out.Pix[i*4+3] = img.Pix[i*4+3] // alpha passthrough
	}
	fmt.Fprintf(logWriter, "0: done\n")
	return out, nil
}
