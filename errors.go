// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package uniprop

import (
	"errors"
	"fmt"

	"github.com/bpowers/uniprop/internal/ucd"
)

var (
	// ErrMalformedLine is matched by errors from loading a table whose
	// source contains an unparsable data line.
	ErrMalformedLine = ucd.ErrMalformedLine

	ErrOverlapAmbiguity = errors.New("overlapping ranges")
	ErrAlreadyInterned  = errors.New("values already interned")
	ErrPrecondition     = errors.New("precondition failed")
	ErrValueOverflow    = errors.New("value index overflows bit width")
	ErrOrdering         = errors.New("code points not strictly ascending")
	ErrTemplateKey      = errors.New("unknown template placeholder")
)

// OverlapError is returned by strict loads when two source ranges overlap.
type OverlapError struct {
	First, Second string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s and %s overlap", e.First, e.Second)
}

func (e *OverlapError) Is(target error) bool {
	return target == ErrOverlapAmbiguity
}

// PreconditionError reports a table that can't be compressed.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// ValueOverflowError reports a value index that does not fit in Bits.
type ValueOverflowError struct {
	Index uint64
	Bits  int
}

func (e *ValueOverflowError) Error() string {
	return fmt.Sprintf("value index %d does not fit in %d bits", e.Index, e.Bits)
}

func (e *ValueOverflowError) Is(target error) bool {
	return target == ErrValueOverflow
}
