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
	"hash/fnv"
	"fmt"

	"github.com/mlnoga/filmgrain/internal/filmstock"
	"github.com/mlnoga/filmgrain/internal/grainerr"
)

// Settings configures one Process call.
type Settings struct {
	ISO            int          `json:"iso"`
	FilmType       filmstock.Type `json:"filmType"`
	GrainIntensity float64      `json:"grainIntensity"`
	UpscaleFactor  float64      `json:"upscaleFactor"`
	Seed           uint64       `json:"seed"`
	HasSeed        bool         `json:"-"`
}

// withDefaults returns a copy of s with zero-valued optional fields defaulted.
func (s Settings) withDefaults() Settings {
	if s.GrainIntensity == 0 {
		s.GrainIntensity = 1.0
	}
	if s.UpscaleFactor == 0 {
		s.UpscaleFactor = 1.0
	}
	return s
}

// validate checks Settings against the InvalidSettings conditions, assuming
// image dimensions have already cleared the DegenerateImage check.
func (s Settings) validate() error {
	if s.ISO < 100 || s.ISO > 3200 {
		return grainerr.New(grainerr.InvalidSettings, "iso %d out of range [100,3200]", s.ISO)
	}
	if !s.FilmType.Valid() {
		return grainerr.New(grainerr.InvalidSettings, "unknown film type %q", s.FilmType)
	}
	if s.GrainIntensity <= 0 {
		return grainerr.New(grainerr.InvalidSettings, "grainIntensity %g must be > 0", s.GrainIntensity)
	}
	if s.UpscaleFactor < 1 {
		return grainerr.New(grainerr.InvalidSettings, "upscaleFactor %g must be >= 1", s.UpscaleFactor)
	}
	return nil
}

// seedOrDefault returns the caller-provided seed, or a value deterministically
// derived from the settings and image dimensions when none was given, so
// "no seed supplied" is still a pure function of (image, settings) rather
// than actually nondeterministic.
func (s Settings) seedOrDefault(w, h int) uint64 {
	if s.HasSeed {
		return s.Seed
	}
	h64 := fnv.New64a()
	fmt.Fprintf(h64, "%d:%s:%g:%g:%d:%d", s.ISO, s.FilmType, s.GrainIntensity, s.UpscaleFactor, w, h)
	return h64.Sum64()
}
