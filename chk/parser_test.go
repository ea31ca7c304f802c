// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package chk

import (
	"encoding/binary"
	"testing"
)

// buildStrChunk builds a raw STR chunk body: a u16 count, that many u16
// offsets, then the backing bytes. entries[i] == "" encodes a 0 offset
// ("no string").
func buildStrChunk(entries []string) []byte {
	headerLen := 2 + 2*len(entries)
	var data []byte
	var offsets []uint16

	for _, e := range entries {
		if e == "" {
			offsets = append(offsets, 0)
			continue
		}
		offsets = append(offsets, uint16(headerLen+len(data)))
		data = append(data, []byte(e)...)
		data = append(data, 0)
	}

	body := make([]byte, headerLen)
	binary.LittleEndian.PutUint16(body, uint16(len(entries)))
	for i, off := range offsets {
		binary.LittleEndian.PutUint16(body[2+i*2:], off)
	}
	return append(body, data...)
}

func TestStringPoolRoundTrip(t *testing.T) {
	body := buildStrChunk([]string{"Hello", "", "世界"})

	pool, err := parseStringPool16(body)
	if err != nil {
		t.Fatalf("parseStringPool16: %v", err)
	}

	if s, ok := pool.At(1); !ok || s != "Hello" {
		t.Errorf("At(1) = (%q, %v), want (\"Hello\", true)", s, ok)
	}
	if s, ok := pool.At(2); ok {
		t.Errorf("At(2) = (%q, %v), want (_, false)", s, ok)
	}
	if s, ok := pool.At(3); !ok || s != "世界" {
		t.Errorf("At(3) = (%q, %v), want (\"世界\", true)", s, ok)
	}
}

func TestDecodeIsomTrailingOddByte(t *testing.T) {
	// Two full u16 values followed by one dangling byte: size 5, must
	// decode to three u16 values, the last zero-extended from the
	// trailing byte, not a parse error.
	body := []byte{0x01, 0x00, 0x02, 0x00, 0x7F}

	item, err := decodeIsom(body)
	if err != nil {
		t.Fatalf("decodeIsom: %v", err)
	}
	isom := item.(Isom)
	want := []uint16{1, 2, 0x7F}
	if len(isom.Values) != len(want) {
		t.Fatalf("len(Values) = %d, want %d", len(isom.Values), len(want))
	}
	for i := range want {
		if isom.Values[i] != want[i] {
			t.Errorf("Values[%d] = %d, want %d", i, isom.Values[i], want[i])
		}
	}
}

func TestParseUnknownTagPreserved(t *testing.T) {
	var data []byte
	data = append(data, []byte("ZZZZ")...)
	data = append(data, 0x03, 0x00, 0x00, 0x00) // size = 3
	data = append(data, 0xAA, 0xBB, 0xCC)

	chunks, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	u, ok := chunks[0].Item.(*Unknown)
	if !ok {
		t.Fatalf("Item = %T, want *Unknown", chunks[0].Item)
	}
	if len(u.Raw) != 3 {
		t.Errorf("len(Raw) = %d, want 3", len(u.Raw))
	}
}

func TestParseRecognizedTagWrongSizeBecomesUnknown(t *testing.T) {
	var data []byte
	data = append(data, []byte("DIM ")...)
	data = append(data, 0x02, 0x00, 0x00, 0x00) // size = 2, but Dim wants 4
	data = append(data, 0x01, 0x02)

	chunks, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := chunks[0].Item.(*Unknown); !ok {
		t.Fatalf("Item = %T, want *Unknown", chunks[0].Item)
	}
}

func TestParseMultipleChunks(t *testing.T) {
	var data []byte
	data = append(data, []byte("VER ")...)
	data = append(data, 0x02, 0x00, 0x00, 0x00)
	data = append(data, 0x5B, 0x00) // version 0x005B

	data = append(data, []byte("ERA ")...)
	data = append(data, 0x02, 0x00, 0x00, 0x00)
	data = append(data, 0x00, 0x00) // badlands

	chunks, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}
	ver, ok := chunks[0].Item.(Ver)
	if !ok || ver.FormatVersion != 0x5B {
		t.Errorf("chunks[0] = %#v, want Ver{FormatVersion: 0x5B}", chunks[0].Item)
	}
	era, ok := chunks[1].Item.(Era)
	if !ok || era.Tileset != 0 {
		t.Errorf("chunks[1] = %#v, want Era{Tileset: 0}", chunks[1].Item)
	}
}
