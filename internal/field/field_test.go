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

package field

import (
	"math"
	"testing"
)

func TestAtClampsOutOfBounds(t *testing.T) {
	f := New(4, 4)
	for i := range f.Data {
		f.Data[i] = float64(i)
	}
	if f.At(-1, -1) != f.At(0, 0) {
		t.Error("At(-1,-1) should clamp to At(0,0)")
	}
	if f.At(10, 10) != f.At(3, 3) {
		t.Error("At(10,10) should clamp to At(3,3)")
	}
}

func TestSampleExactGridPoints(t *testing.T) {
	f := New(3, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			f.Data[y*3+x] = float64(x + y*3)
		}
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			got := f.Sample(float64(x), float64(y))
			want := f.At(x, y)
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("Sample(%d,%d)=%f, want %f", x, y, got, want)
			}
		}
	}
}

func TestSampleInterpolatesLinearly(t *testing.T) {
	f := New(2, 2)
	f.Data[0] = 0 // (0,0)
	f.Data[1] = 10 // (1,0)
	f.Data[2] = 0 // (0,1)
	f.Data[3] = 10 // (1,1)

	got := f.Sample(0.5, 0)
	if math.Abs(got-5) > 1e-9 {
		t.Errorf("Sample(0.5,0)=%f, want 5", got)
	}
}

func TestMeanOfConstantField(t *testing.T) {
	f := New(5, 5)
	for i := range f.Data {
		f.Data[i] = 0.42
	}
	if got := f.Mean(); math.Abs(got-0.42) > 1e-9 {
		t.Errorf("Mean()=%f, want 0.42", got)
	}
}

func TestMeanOfEmptyField(t *testing.T) {
	f := &Linear{}
	if got := f.Mean(); got != 0 {
		t.Errorf("Mean() of empty field=%f, want 0", got)
	}
}
