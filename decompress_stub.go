// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import "fmt"

// The four codecs below are out of scope for a native Go port (per spec §1:
// "the in-tree native decompression shims ... are specified only by their
// pure-function contract"); the original Rust source itself stubs their
// bodies with panics (storm-core/src/utils/decompress.rs). Each is exposed
// here as a package-level function variable — an external-collaborator
// seam a caller can satisfy with a real decoder without forking this
// module, while the zero-value behavior surfaces a clear
// DecompressionFeature error instead of silently returning garbage.

// HuffmanDecoder decodes mode 0x01 (and the huffman leg of the 0x41/0x81
// adpcm+huffman composite chains). Swap it out to add real support.
var HuffmanDecoder = func(data []byte, uncompressedSize uint32) ([]byte, error) {
	return nil, unsupportedCodec("huffman")
}

// PKWareExplodeDecoder decodes mode 0x08 and IMPLODE-flagged bodies that
// carry no mode-byte prefix at all; the dictionary size is self-describing
// in PkLib's own header byte.
var PKWareExplodeDecoder = func(data []byte, uncompressedSize uint32) ([]byte, error) {
	return nil, unsupportedCodec("pkware implode")
}

// SparseDecoder decodes mode 0x20 (and the sparse leg of 0x22/0x30).
var SparseDecoder = func(data []byte, uncompressedSize uint32) ([]byte, error) {
	return nil, unsupportedCodec("sparse")
}

// ADPCMDecoder decodes modes 0x40/0x80 (and the adpcm leg of the 0x48/0x88
// and 0x41/0x81 composites). channels is 1 for mono, 2 for stereo.
var ADPCMDecoder = func(data []byte, uncompressedSize uint32, channels int) ([]byte, error) {
	return nil, unsupportedCodec(fmt.Sprintf("adpcm(%d ch)", channels))
}

func unsupportedCodec(name string) error {
	return newErr(KindDecompressionFeature, name, fmt.Errorf("%s decoder not wired in this build", name))
}

func decodeHuffman(data []byte, n uint32) ([]byte, error)         { return HuffmanDecoder(data, n) }
func decodePKWareExplode(data []byte, n uint32) ([]byte, error)   { return PKWareExplodeDecoder(data, n) }
func decodeSparse(data []byte, n uint32) ([]byte, error)          { return SparseDecoder(data, n) }
func decodeADPCM(data []byte, n uint32, ch int) ([]byte, error)   { return ADPCMDecoder(data, n, ch) }
