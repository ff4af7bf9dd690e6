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

// Package grainerr defines the small set of error kinds the pipeline can
// surface to a caller, shared across the leaf packages so a validation
// failure discovered deep in grain generation carries the same Kind the
// orchestrator returns for a failure it catches itself.
package grainerr

import "fmt"

// Kind classifies an error returned by the pipeline.
type Kind int

const (
	// InvalidSettings covers ISO out of range, unknown film type,
	// non-positive dimensions, or a non-RGBA buffer length.
	InvalidSettings Kind = iota
	// DegenerateImage covers W*H==0.
	DegenerateImage
	// InternalInvariantViolated is used only by debug assertions; surfacing
	// one indicates a bug in the pipeline, not bad caller input.
	InternalInvariantViolated
)

func (k Kind) String() string {
	switch k {
	case InvalidSettings:
		return "InvalidSettings"
	case DegenerateImage:
		return "DegenerateImage"
	case InternalInvariantViolated:
		return "InternalInvariantViolated"
	}
	return "Unknown"
}

// Error is the pipeline's error type. It carries a Kind so callers can branch
// on failure category with errors.As, in the plain errors.New/fmt.Errorf
// style rather than a third-party error-wrapping library.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// New builds an *Error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
