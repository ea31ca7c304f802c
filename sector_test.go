// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"bytes"
	"testing"
)

func archiveForSectorTest(data []byte, shift uint16) *Archive {
	h := &header{}
	h.v4.headerV3.headerV2.headerV1.SectorSizeShift = shift
	return &Archive{
		reader: bytes.NewReader(data),
		size:   int64(len(data)),
		header: h,
	}
}

func TestReadFileSingleUnitUncompressed(t *testing.T) {
	content := []byte("a tiny single-unit file body")
	a := archiveForSectorTest(content, 0)

	ptr := &Pointer{archive: a, entry: blockTableEntry{
		FilePos:        0,
		CompressedSize: uint32(len(content)),
		FileSize:       uint32(len(content)),
		Flags:          fileExists | fileSingleUnit,
	}}

	got, err := a.ReadFile(ptr)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("ReadFile = %q, want %q", got, content)
	}
}

func TestReadFileSectoredUncompressedMultiSector(t *testing.T) {
	sectorSize := 512
	// Two full-ish sectors: one exactly sectorSize, one a short remainder.
	content := append(bytes.Repeat([]byte{0x42}, sectorSize), []byte("tail bytes of the second sector")...)

	a := archiveForSectorTest(content, 0) // shift 0 -> sectorSize 512

	ptr := &Pointer{archive: a, entry: blockTableEntry{
		FilePos:        0,
		CompressedSize: uint32(len(content)),
		FileSize:       uint32(len(content)),
		Flags:          fileExists,
	}}

	got, err := a.ReadFile(ptr)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("ReadFile produced %d bytes, want %d matching bytes", len(got), len(content))
	}
}

func TestReadFileSectoredEncrypted(t *testing.T) {
	sectorSize := 512
	content := append(bytes.Repeat([]byte{0x07}, sectorSize), []byte("second sector remainder")...)
	n := 2 // sector count

	key := uint32(0xDEADBEEF)

	// Build the archive body: [offset table][sector 0][sector 1], with the
	// offset table and every sector independently encrypted the way
	// ReadFile expects (table with key-1, sector i with key+i). Only
	// compressed entries carry an on-disk offset table, and its offsets are
	// relative to the body start, so the first sector begins past the table.
	tableLen := uint32((n + 1) * 4)
	table := []uint32{tableLen, tableLen + uint32(sectorSize), tableLen + uint32(len(content))}
	tableBuf := make([]byte, len(table)*4)
	for i, v := range table {
		tableBuf[i*4], tableBuf[i*4+1], tableBuf[i*4+2], tableBuf[i*4+3] =
			byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	}
	encryptBytesForTest(tableBuf, key-1)

	sector0 := append([]byte(nil), content[:sectorSize]...)
	encryptBytesForTestPadded(sector0, key+0)
	sector1 := append([]byte(nil), content[sectorSize:]...)
	encryptBytesForTestPadded(sector1, key+1)

	var body []byte
	body = append(body, tableBuf...)
	body = append(body, sector0...)
	body = append(body, sector1...)

	a := archiveForSectorTest(body, 0)

	ptr := &Pointer{archive: a, key: key, entry: blockTableEntry{
		FilePos:        0,
		CompressedSize: tableLen + uint32(len(content)),
		FileSize:       uint32(len(content)),
		Flags:          fileExists | fileEncrypted | fileCompress,
	}}

	got, err := a.ReadFile(ptr)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("ReadFile produced %d bytes, want %d matching bytes (n=%d sectors)", len(got), len(content), n)
	}
}

// encryptBytesForTestPadded mirrors decryptBytesPadded: it only encrypts
// the complete leading multiple of 4 bytes, leaving any short tail (the
// final sector of a file whose size isn't sector-aligned) untouched, which
// matches how these fixtures are also read back.
func encryptBytesForTestPadded(data []byte, key uint32) {
	full := len(data) - len(data)%4
	encryptBytesForTest(data[:full], key)
}

func TestReadFilePatchFileUnsupported(t *testing.T) {
	a := archiveForSectorTest(nil, 0)
	ptr := &Pointer{archive: a, entry: blockTableEntry{Flags: fileExists | filePatchFile, FileSize: 10, CompressedSize: 10}}

	if _, err := a.ReadFile(ptr); err == nil {
		t.Fatalf("ReadFile of a PATCH_FILE entry succeeded, want KindFileInvalidType error")
	}
}

func TestReadFileZeroLength(t *testing.T) {
	a := archiveForSectorTest(nil, 0)
	ptr := &Pointer{archive: a, entry: blockTableEntry{Flags: fileExists}}

	got, err := a.ReadFile(ptr)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("ReadFile of a zero-size entry returned %d bytes, want 0", len(got))
	}
}
