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

package exposure

import (
	"testing"

	"github.com/mlnoga/filmgrain/internal/field"
	"github.com/mlnoga/filmgrain/internal/grain"
	"github.com/mlnoga/filmgrain/internal/kernel"
	"github.com/mlnoga/filmgrain/internal/rng"
)

func flatField(w, h int, v float64) *field.Linear {
	f := field.New(w, h)
	for i := range f.Data {
		f.Data[i] = v
	}
	return f
}

func TestIntegrateDeterministicForFixedWorkerCount(t *testing.T) {
	set := grain.Set{
		{X: 10, Y: 10, Size: 2, Shape: 0.2},
		{X: 20, Y: 20, Size: 2.5, Shape: 0.4},
		{X: 30, Y: 5, Size: 1.8, Shape: 0.1},
	}
	f := flatField(64, 64, 0.5)

	a := Integrate(set, f, 2.0, rng.New(7), 2)
	b := Integrate(set, f, 2.0, rng.New(7), 2)
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("grain %d: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestIntegrateDeterministicAcrossWorkerCounts(t *testing.T) {
	set := grain.Set{
		{X: 10, Y: 10, Size: 2, Shape: 0.2},
		{X: 20, Y: 20, Size: 2.5, Shape: 0.4},
		{X: 30, Y: 5, Size: 1.8, Shape: 0.1},
		{X: 40, Y: 40, Size: 2.2, Shape: 0.3},
		{X: 50, Y: 12, Size: 1.6, Shape: 0.6},
	}
	f := flatField(64, 64, 0.5)

	base := Integrate(set, f, 2.0, rng.New(11), 1)
	for _, workers := range []int{2, 3, 5, 8} {
		got := Integrate(set, f, 2.0, rng.New(11), workers)
		if len(got) != len(base) {
			t.Fatalf("workers=%d: length mismatch: %d vs %d", workers, len(got), len(base))
		}
		for i := range got {
			if got[i] != base[i] {
				t.Errorf("workers=%d: grain %d = %f, want %f (workers=1 result)", workers, i, got[i], base[i])
			}
		}
	}
}

func TestIntegrateEmptySet(t *testing.T) {
	f := flatField(8, 8, 0.5)
	out := Integrate(nil, f, 2.0, rng.New(1), 4)
	if len(out) != 0 {
		t.Errorf("len=%d, want 0", len(out))
	}
}

func TestIntegrateClampsToMaxExposure(t *testing.T) {
	set := grain.Set{{X: 5, Y: 5, Size: 1.5, Shape: 0}}
	f := flatField(16, 16, 1000.0)
	out := Integrate(set, f, 2.0, rng.New(3), 1)
	if out[0] > maxExposure {
		t.Errorf("exposure %f exceeds maxExposure %f", out[0], maxExposure)
	}
}

func TestIntegrateNonNegative(t *testing.T) {
	set := grain.Set{{X: 5, Y: 5, Size: 1.5, Shape: 0}}
	f := flatField(16, 16, 0.0)
	out := Integrate(set, f, 2.0, rng.New(3), 1)
	if out[0] < 0 {
		t.Errorf("exposure %f is negative", out[0])
	}
}

func TestIntegrateOneWeightedSumMatchesFlatField(t *testing.T) {
	g := grain.Grain{X: 8, Y: 8, Size: 1.0, Shape: 0}
	f := flatField(16, 16, 0.7)
	mainRNG := rng.New(2)
	cache := kernel.NewCache(1.0)
	cache.SamplesFor(g, mainRNG.Derive(0))

	got := integrateOne(0, g, f, cache, 1.0, mainRNG)
	// Sampled kernel weights sum to 1, so against a flat field the
	// weighted sum must reproduce the field's constant value.
	if diff := got - 0.7; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("integrateOne on flat field = %f, want 0.7", got)
	}
}

func TestIntegrateOneFallsBackOnCacheMiss(t *testing.T) {
	g := grain.Grain{X: 8, Y: 8, Size: 1.0, Shape: 0}
	f := flatField(16, 16, 0.4)
	mainRNG := rng.New(3)
	cache := kernel.NewCache(1.0) // never prefilled: every lookup misses

	got := integrateOne(0, g, f, cache, 1.0, mainRNG)
	if diff := got - 0.4; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("integrateOne fallback on flat field = %f, want 0.4", got)
	}
}
