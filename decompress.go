// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"

	kflate "github.com/klauspost/compress/flate"
	"github.com/ulikunitz/xz/lzma"
)

// Compression mode bitmask values, per spec §4.5.
const (
	compressHuffman   = 0x01
	compressDeflate   = 0x02
	compressPKWare    = 0x08
	compressBZip2     = 0x10
	compressSparse    = 0x20
	compressADPCMMono = 0x40
	compressADPCMStereo = 0x80
	compressLZMA      = 0x12
)

// decompressSector dispatches a single sector/single-unit body through the
// compression chain named by mask, the way spec §4.5 describes: a set of
// recognized singleton masks, plus a handful of composite chains applied in
// a fixed decode order (primary codec first, then sparse, then the
// huffman+adpcm audio chain).
func decompressSector(mask byte, data []byte, uncompressedSize uint32) ([]byte, error) {
	if len(data) == 0 {
		return nil, newErr(KindDecompressionNoBytes, "", fmt.Errorf("empty sector body"))
	}

	switch mask {
	case compressDeflate:
		return decompressDeflate(data, uncompressedSize)
	case compressBZip2:
		return decompressBZip2(data, uncompressedSize)
	case compressLZMA:
		return decompressLZMA(data, uncompressedSize)
	case compressHuffman:
		return decodeHuffman(data, uncompressedSize)
	case compressPKWare:
		return decodePKWareExplode(data, uncompressedSize)
	case compressSparse:
		return decodeSparse(data, uncompressedSize)
	case compressADPCMMono:
		return decodeADPCM(data, uncompressedSize, 1)
	case compressADPCMStereo:
		return decodeADPCM(data, uncompressedSize, 2)
	}

	// Composite chains: decode right-to-left against the compression order.
	// A mask naming no codec, or carrying a bit no codec owns, is rejected.
	if mask == 0 || mask&^byte(compressHuffman|compressDeflate|compressPKWare|compressBZip2|compressSparse|compressADPCMMono|compressADPCMStereo) != 0 {
		return nil, newErr(KindDecompressionInvalid, "", fmt.Errorf("unrecognized compression mask 0x%02X", mask))
	}
	result := data
	var err error

	switch {
	case mask&compressBZip2 != 0:
		result, err = decompressBZip2(result, uncompressedSize)
	case mask&compressDeflate != 0:
		result, err = decompressDeflate(result, uncompressedSize)
	case mask&compressPKWare != 0:
		result, err = decodePKWareExplode(result, uncompressedSize)
	case mask&compressLZMA != 0:
		result, err = decompressLZMA(result, uncompressedSize)
	}
	if err != nil {
		return nil, err
	}

	if mask&compressSparse != 0 {
		result, err = decodeSparse(result, uncompressedSize)
		if err != nil {
			return nil, err
		}
	}

	if mask&compressHuffman != 0 {
		result, err = decodeHuffman(result, uncompressedSize)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case mask&compressADPCMMono != 0:
		result, err = decodeADPCM(result, uncompressedSize, 1)
	case mask&compressADPCMStereo != 0:
		result, err = decodeADPCM(result, uncompressedSize, 2)
	}
	if err != nil {
		return nil, err
	}

	return result, nil
}

// decompressDeflate decodes zlib-wrapped Deflate (mode 0x02). The two-byte
// zlib header is stripped by hand and the payload handed to klauspost's
// flate reader rather than stdlib compress/zlib: klauspost tolerates the
// short, occasionally-truncated trailing sector bodies some archives ship
// (stdlib zlib.Reader treats unexpected EOF on the final block as fatal).
func decompressDeflate(data []byte, uncompressedSize uint32) ([]byte, error) {
	if len(data) < 2 {
		return nil, newErr(KindDecompressionFailure, "", fmt.Errorf("deflate body too short"))
	}
	fr := kflate.NewReader(bytes.NewReader(data[2:]))
	defer fr.Close()

	out := make([]byte, uncompressedSize)
	n, err := io.ReadFull(fr, out)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, newErr(KindDecompressionFailure, "", err)
	}
	return out[:n], nil
}

func decompressBZip2(data []byte, uncompressedSize uint32) ([]byte, error) {
	r := bzip2.NewReader(bytes.NewReader(data))
	out := make([]byte, uncompressedSize)
	n, err := io.ReadFull(r, out)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, newErr(KindDecompressionFailure, "", err)
	}
	return out[:n], nil
}

// decompressLZMA decodes mode 0x12. MPQ's LZMA framing omits the standard
// 13-byte xz/lzma stream header; it ships only the 5-byte properties
// record (lc/lp/pb + dictionary size) immediately followed by the raw
// compressed stream, so the full header lzma.NewReader expects is rebuilt
// from those 5 bytes plus the known uncompressed size (8 bytes, little-endian).
func decompressLZMA(data []byte, uncompressedSize uint32) ([]byte, error) {
	if len(data) < 5 {
		return nil, newErr(KindDecompressionFailure, "", fmt.Errorf("lzma properties truncated"))
	}
	hdr := make([]byte, 13)
	copy(hdr, data[:5])
	for i := 0; i < 8; i++ {
		hdr[5+i] = byte(uint64(uncompressedSize) >> (8 * i))
	}
	r, err := lzma.NewReader(io.MultiReader(bytes.NewReader(hdr), bytes.NewReader(data[5:])))
	if err != nil {
		return nil, newErr(KindDecompressionFailure, "", err)
	}
	out := make([]byte, uncompressedSize)
	n, err := io.ReadFull(r, out)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, newErr(KindDecompressionFailure, "", err)
	}
	return out[:n], nil
}
