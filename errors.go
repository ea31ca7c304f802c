// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"errors"
	"fmt"
)

// Kind classifies the failure modes a reader can hit while opening or
// extracting from an archive. Callers that need to distinguish "this file
// doesn't exist" from "this archive is corrupt" should switch on Kind via
// errors.As rather than matching error strings.
type Kind int

const (
	// KindOther covers failures that don't fit a more specific bucket.
	KindOther Kind = iota
	// KindInvalidIO wraps an underlying I/O error (short read, seek past EOF, ...).
	KindInvalidIO
	// KindInvalidUTF8 marks a string field that failed UTF-8 decoding.
	KindInvalidUTF8
	// KindInvalidMagic marks a signature mismatch (no archive header found, or a bad HET/BET magic).
	KindInvalidMagic
	// KindInvalidLen marks a length field outside its allowed range.
	KindInvalidLen
	// KindInvalidMD5 marks a digest mismatch during V4 table verification.
	KindInvalidMD5
	// KindFileInvalidSize marks an archive file whose length is below one V1
	// header or above the configured ceiling at open time.
	KindFileInvalidSize
	// KindFileInvalidType marks a block-table entry whose flags name a shape
	// the reader does not extract (any PATCH_FILE entry).
	KindFileInvalidType
	// KindFileCorruptData marks sector data that failed a structural check
	// (bad offset table, CRC mismatch, decompression yielded the wrong length).
	KindFileCorruptData
	// KindFileDataMissing marks a name that does not resolve to an existing
	// block entry (no hash table, no matching hash entry, or EXISTS clear).
	KindFileDataMissing
	// KindDecompressionInvalid marks a compression mask the dispatcher does
	// not recognize at all.
	KindDecompressionInvalid
	// KindDecompressionNoBytes marks an empty compressed body handed to the
	// decompression dispatcher.
	KindDecompressionNoBytes
	// KindDecompressionFailure marks an underlying codec error (corrupt stream).
	KindDecompressionFailure
	// KindDecompressionStatus marks a codec that reported an unexpected status.
	KindDecompressionStatus
	// KindDecompressionFeature marks a compression mode whose native decoder
	// is out of scope for this module (see decompress_stub.go).
	KindDecompressionFeature
)

func (k Kind) String() string {
	switch k {
	case KindInvalidIO:
		return "invalid io"
	case KindInvalidUTF8:
		return "invalid utf8"
	case KindInvalidMagic:
		return "invalid magic"
	case KindInvalidLen:
		return "invalid length"
	case KindInvalidMD5:
		return "invalid md5"
	case KindFileInvalidSize:
		return "file invalid size"
	case KindFileInvalidType:
		return "file invalid type"
	case KindFileCorruptData:
		return "file corrupt data"
	case KindFileDataMissing:
		return "file data missing"
	case KindDecompressionInvalid:
		return "decompression invalid"
	case KindDecompressionNoBytes:
		return "decompression no bytes"
	case KindDecompressionFailure:
		return "decompression failure"
	case KindDecompressionStatus:
		return "decompression status"
	case KindDecompressionFeature:
		return "decompression feature"
	default:
		return "other"
	}
}

// Error is the typed error every exported operation in this module returns
// on failure. Name, when non-empty, is the archive-relative path or table
// name the error concerns.
type Error struct {
	Kind Kind
	Name string
	Err  error
}

func (e *Error) Error() string {
	if e.Name != "" {
		if e.Err != nil {
			return fmt.Sprintf("mpq: %s %q: %v", e.Kind, e.Name, e.Err)
		}
		return fmt.Sprintf("mpq: %s %q", e.Kind, e.Name)
	}
	if e.Err != nil {
		return fmt.Sprintf("mpq: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("mpq: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrFileNotFound) work against a *Error without
// requiring callers to compare Kind and a sentinel at the same time.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

func newErr(kind Kind, name string, cause error) *Error {
	return &Error{Kind: kind, Name: name, Err: cause}
}

// ErrFileNotFound matches, via errors.Is, any KindFileDataMissing error,
// such as the one FindFile returns when no hash/block table entry resolves
// to the requested path.
var ErrFileNotFound = newErr(KindFileDataMissing, "", errors.New("file not found"))
