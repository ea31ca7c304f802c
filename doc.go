// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

/*
Package mpq provides pure Go support for reading MPQ (Mo'PaQ) archives.

MPQ is an archive format created by Blizzard Entertainment, used in games
like Diablo, StarCraft, and World of Warcraft. This package reads format
versions 1 through 4, which covers everything from the original Diablo
archives through Cataclysm-era World of Warcraft.

This is a read-only package: there is no archive creation, signing, or
in-place modification here, only extraction from archives written by
other tools.

# Features

  - Pure Go implementation - no CGO
  - Header versions V1-V4, including the 512-byte user-data shunt scan
  - Classic hash/block tables and the V3+ HET/BET tables
  - Deflate, BZip2, and LZMA sector decompression, plus the Sparse/
    Huffman/PKWare-implode/ADPCM composite chain dispatch (the last four
    codecs are pluggable extension points, unimplemented by default)
  - Encrypted file and table support, including FIX_KEY-derived keys
  - Optional per-sector CRC32 verification
  - "(listfile)", "(attributes)", "(signature)", and "(patch_metadata)"
    special-file parsing

# Basic Usage

	archive, err := mpq.Open("game.mpq")
	if err != nil {
		log.Fatal(err)
	}
	defer archive.Close()

	if archive.HasFile("Data\\file.txt") {
		ptr, err := archive.FindFile("Data\\file.txt")
		if err != nil {
			log.Fatal(err)
		}
		data, err := archive.ReadFile(ptr)
		if err != nil {
			log.Fatal(err)
		}
	}

# Path Conventions

MPQ archives use backslash (\) as the path separator internally, since
that's what the hash function was seeded on. Names are folded before
hashing (see asciiFold): letters case-insensitively, and '/' to '\', so
either separator finds the same entry.

# Limitations

  - No archive creation or modification of any kind.
  - PATCH_FILE bodies (incremental per-file patches layered across a
    patch chain) are detected but not reconstructed; ReadFile returns an
    error for them. Resolving a patch chain requires the base archive and
    is out of scope for a single-archive reader.
  - Huffman, PKWare implode, Sparse, and ADPCM sector decompression are
    extension points (see decompress_stub.go) rather than built-in
    codecs; by default, sectors using them report KindDecompressionFeature.
*/
package mpq
