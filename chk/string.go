// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package chk

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"

	"github.com/suprsokr/go-mpq/internal/byteio"
)

// parseStringPool16 decodes the classic STR layout: a u16 count, that
// many u16 offsets, then the raw backing buffer.
func parseStringPool16(b []byte) (Str, error) {
	r := byteio.NewReader(b)
	count, err := r.U16LE()
	if err != nil {
		return Str{}, err
	}
	offsets := make([]uint16, count)
	for i := range offsets {
		if offsets[i], err = r.U16LE(); err != nil {
			return Str{}, err
		}
	}
	return Str{raw: b, offsets: offsets}, nil
}

// parseStringPool32 decodes the STRx layout: identical to Str but with a
// u32 count and u32 offsets, used once a map's string table outgrew what
// u16 offsets could address.
func parseStringPool32(b []byte) (Strx, error) {
	r := byteio.NewReader(b)
	count, err := r.U32LE()
	if err != nil {
		return Strx{}, err
	}
	offsets := make([]uint32, count)
	for i := range offsets {
		if offsets[i], err = r.U32LE(); err != nil {
			return Strx{}, err
		}
	}
	return Strx{raw: b, offsets: offsets}, nil
}

// At returns the string at the given 1-based index into the pool, or
// false if index is out of range or the pool records offset 0 for it
// (the "no string" sentinel).
func (s *Str) At(index int) (string, bool) {
	return lookupString(s.raw, widen(s.offsets), index)
}

// At returns the string at the given 1-based index into the pool, or
// false under the same conditions as Str.At.
func (sx *Strx) At(index int) (string, bool) {
	return lookupString(sx.raw, sx.offsets, index)
}

func widen(u16s []uint16) []uint32 {
	out := make([]uint32, len(u16s))
	for i, v := range u16s {
		out[i] = uint32(v)
	}
	return out
}

// lookupString resolves a 1-based string index against a pool's offset
// table. Index i refers to offsets[i-1]; an offset of 0 means "no
// string" regardless of position, since a real offset always lands past
// the count/offsets header.
func lookupString(raw []byte, offsets []uint32, index int) (string, bool) {
	if index <= 0 || index > len(offsets) {
		return "", false
	}
	off := int(offsets[index-1])
	if off == 0 || off >= len(raw) {
		return "", false
	}
	end := bytes.IndexByte(raw[off:], 0)
	if end < 0 {
		end = len(raw) - off
	}
	return DecodeString(raw[off : off+end]), true
}

// DecodeString decodes one NUL-terminated string-pool entry with the
// fallback chain spec §4.10 specifies: UTF-8 first (scenario strings
// written by modern tools and any ASCII-only string are valid UTF-8
// already), then EUC-KR (CP949, for Korean battle.net-era maps), then
// Windows-1252 as a last resort. Invalid bytes under all three decode to
// the Unicode replacement character via Windows-1252's superset-of-Latin1
// byte-for-byte mapping, which never itself fails.
func DecodeString(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	if s, err := korean.EUCKR.NewDecoder().String(string(raw)); err == nil {
		return s
	}
	s, _ := charmap.Windows1252.NewDecoder().String(string(raw))
	return s
}
