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
	"runtime"

	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"
)

// memoryFractionPerTile bounds how much scratch memory (exposure/density
// buffers) a single tile of the parallel stages is allowed to need, as a
// fraction of total system memory. Mirrors cmd/nightlight's totalMiBs-driven
// batch sizing (cmd/nightlight/main.go), generalized from "how many full
// frames fit in RAM" to "how many grain-processing tiles fit in RAM".
const memoryFractionPerTile = 1.0 / 64.0

// tuning holds the worker/tile counts chosen for one Process call.
type tuning struct {
	exposureWorkers int
	compositeTiles  int
}

// chooseTuning sizes concurrency for the exposure integrator (per-grain,
// parallelized across grains) and the compositor (per-pixel, parallelized
// across row tiles), from CPU topology and available memory.
func chooseTuning(grainCount, w, h int) tuning {
	cores := runtime.NumCPU()
	if cpuid.CPU.LogicalCores > 0 && cpuid.CPU.LogicalCores < cores*4 {
		// Prefer the CPU-reported logical core count when it looks sane;
		// falls back to runtime.NumCPU() on platforms cpuid can't read.
		cores = cpuid.CPU.LogicalCores
	}
	if cores < 1 {
		cores = 1
	}

	totalBytes := memory.TotalMemory()
	budget := uint64(float64(totalBytes) * memoryFractionPerTile)
	// Each compositor tile holds one row-band of float64 density output;
	// bound tile row count so a tile's buffer never exceeds the budget.
	bytesPerRow := uint64(w) * 8
	maxTileRows := h
	if bytesPerRow > 0 && budget/bytesPerRow < uint64(h) {
		maxTileRows = int(budget / bytesPerRow)
		if maxTileRows < 1 {
			maxTileRows = 1
		}
	}
	compositeTiles := cores * 2
	if compositeTiles > h {
		compositeTiles = h
	}
	if rowsPerTile := h / maxInt(compositeTiles, 1); rowsPerTile > maxTileRows {
		compositeTiles = h / maxInt(maxTileRows, 1)
	}
	if compositeTiles < 1 {
		compositeTiles = 1
	}

	exposureWorkers := cores
	if exposureWorkers > grainCount {
		exposureWorkers = grainCount
	}
	if exposureWorkers < 1 {
		exposureWorkers = 1
	}

	return tuning{exposureWorkers: exposureWorkers, compositeTiles: compositeTiles}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
