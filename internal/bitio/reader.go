// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

// Package bitio extracts the bit-packed fields that make up the bodies of
// the extended HET and BET tables. Their entry widths are self-describing
// (declared by header fields rather than fixed at compile time), which is
// exactly the variable-width unpacking problem github.com/icza/bitio solves
// for PkLib-style bit streams elsewhere in the corpus; we reuse it here.
package bitio

import (
	"bytes"
	"io"

	"github.com/icza/bitio"
)

// Reader pulls fixed-width unsigned fields out of a byte buffer MSB-first,
// the packing order both HET and BET use for their hash/index arrays.
type Reader struct {
	r *bitio.Reader
}

// NewReader wraps buf for bit-level reads.
func NewReader(buf []byte) *Reader {
	return &Reader{r: bitio.NewReader(bytes.NewReader(buf))}
}

// ReadBits reads width bits (1..64) and returns them right-aligned in a
// uint64.
func (r *Reader) ReadBits(width int) (uint64, error) {
	if width <= 0 {
		return 0, nil
	}
	v, err := r.r.ReadBits(uint8(width))
	if err != nil {
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, err
	}
	return v, nil
}

// Align discards any partially-read byte, matching the table format's
// per-array byte alignment between the hash array and the index array.
func (r *Reader) Align() {
	r.r.Align()
}
