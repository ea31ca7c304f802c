// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"bytes"
	"compress/zlib"
	"errors"
	"testing"
)

func zlibCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("zlib.Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zlib.Close: %v", err)
	}
	return buf.Bytes()
}

func TestDecompressDeflateRoundTrip(t *testing.T) {
	want := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 8)
	compressed := zlibCompress(t, want)

	got, err := decompressDeflate(compressed, uint32(len(want)))
	if err != nil {
		t.Fatalf("decompressDeflate: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("decompressDeflate mismatch: got %d bytes, want %d bytes", len(got), len(want))
	}
}

func TestDecompressDeflateTooShort(t *testing.T) {
	if _, err := decompressDeflate([]byte{0x78}, 10); err == nil {
		t.Fatalf("decompressDeflate of a 1-byte body succeeded, want an error")
	}
}

func TestDecompressSectorDispatchesDeflate(t *testing.T) {
	want := []byte("sector body text, long enough to compress meaningfully over and over")
	compressed := zlibCompress(t, want)

	got, err := decompressSector(compressDeflate, compressed, uint32(len(want)))
	if err != nil {
		t.Fatalf("decompressSector: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("decompressSector mismatch: got %q, want %q", got, want)
	}
}

func TestDecompressSectorEmptyBody(t *testing.T) {
	if _, err := decompressSector(compressDeflate, nil, 10); err == nil {
		t.Fatalf("decompressSector of an empty body succeeded, want KindDecompressionNoBytes")
	}
}

func TestUnwiredCodecsReportDecompressionFeature(t *testing.T) {
	cases := []struct {
		name string
		fn   func() ([]byte, error)
	}{
		{"huffman", func() ([]byte, error) { return decodeHuffman([]byte{0x01}, 4) }},
		{"pkware implode", func() ([]byte, error) { return decodePKWareExplode([]byte{0x01}, 4) }},
		{"sparse", func() ([]byte, error) { return decodeSparse([]byte{0x01}, 4) }},
		{"adpcm", func() ([]byte, error) { return decodeADPCM([]byte{0x01}, 4, 2) }},
	}

	for _, c := range cases {
		_, err := c.fn()
		if err == nil {
			t.Errorf("%s: succeeded, want KindDecompressionFeature error", c.name)
			continue
		}
		var merr *Error
		if !errors.As(err, &merr) {
			t.Errorf("%s: error type %T, want *Error", c.name, err)
			continue
		}
		if merr.Kind != KindDecompressionFeature {
			t.Errorf("%s: Kind = %v, want KindDecompressionFeature", c.name, merr.Kind)
		}
	}
}
