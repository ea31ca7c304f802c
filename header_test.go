// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// buildV1Archive assembles a minimal, valid V1 archive: header, then an
// encrypted one-entry hash table, then an encrypted one-entry block table.
// The single entry maps name to a zero-length, uncompressed, existing file
// at the end of the block table (so FileSize/CompressedSize both being 0
// keeps the body trivially valid).
func buildV1Archive(name string) []byte {
	const (
		hashOff  = headerSizeV1
		blockOff = hashOff + hashEntrySize
	)

	// A single-slot table (mask 0) means every name's table-offset hash
	// lands on slot 0, so the fixture doesn't need to replicate the real
	// probe sequence.
	h1 := hashString(name, HashTypeNameA)
	h2 := hashString(name, HashTypeNameB)

	hashEntry := make([]byte, hashEntrySize)
	binary.LittleEndian.PutUint32(hashEntry[0:4], h1)
	binary.LittleEndian.PutUint32(hashEntry[4:8], h2)
	binary.LittleEndian.PutUint16(hashEntry[8:10], 0)
	binary.LittleEndian.PutUint16(hashEntry[10:12], 0)
	binary.LittleEndian.PutUint32(hashEntry[12:16], 0) // BlockIndex 0
	encryptBytesForTest(hashEntry, hashKeyHashTable)

	blockEntry := make([]byte, blockEntrySize)
	binary.LittleEndian.PutUint32(blockEntry[0:4], uint32(blockOff+blockEntrySize)) // FilePos
	binary.LittleEndian.PutUint32(blockEntry[4:8], 0)                              // CompressedSize
	binary.LittleEndian.PutUint32(blockEntry[8:12], 0)                             // FileSize
	binary.LittleEndian.PutUint32(blockEntry[12:16], fileExists)
	encryptBytesForTest(blockEntry, hashKeyBlockTable)

	header := make([]byte, headerSizeV1)
	binary.LittleEndian.PutUint32(header[0:4], archiveMagicLE)
	binary.LittleEndian.PutUint32(header[4:8], headerSizeV1)
	binary.LittleEndian.PutUint32(header[8:12], uint32(blockOff+blockEntrySize))
	binary.LittleEndian.PutUint16(header[12:14], formatV1)
	binary.LittleEndian.PutUint16(header[14:16], 0) // sector size shift
	binary.LittleEndian.PutUint32(header[16:20], hashOff)
	binary.LittleEndian.PutUint32(header[20:24], blockOff)
	binary.LittleEndian.PutUint32(header[24:28], 1)
	binary.LittleEndian.PutUint32(header[28:32], 1)

	var buf []byte
	buf = append(buf, header...)
	buf = append(buf, hashEntry...)
	buf = append(buf, blockEntry...)
	return buf
}

// encryptBytesForTest is decryptBytes's inverse, used only to build fixture
// tables (decryptBytes decrypts on read; we need the encrypted form on disk).
func encryptBytesForTest(data []byte, key uint32) {
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	encryptBlock(words, key)
	for i := range words {
		binary.LittleEndian.PutUint32(data[i*4:], words[i])
	}
}

func TestOpenNoShunt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.mpq")
	if err := os.WriteFile(path, buildV1Archive("test.txt"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	if a.archiveOffset != 0 {
		t.Errorf("archiveOffset = %d, want 0", a.archiveOffset)
	}
	if !a.HasFile("test.txt") {
		t.Errorf("HasFile(%q) = false, want true", "test.txt")
	}
}

func TestOpenWithUserDataShunt(t *testing.T) {
	const shuntPad = 64

	archive := buildV1Archive("test.txt")

	userData := make([]byte, shuntPad)
	binary.LittleEndian.PutUint32(userData[0:4], userDataMagicLE)
	binary.LittleEndian.PutUint32(userData[4:8], shuntPad) // UserDataSize
	binary.LittleEndian.PutUint32(userData[8:12], shuntPad) // HeaderOffset: archive starts right after the shunt
	binary.LittleEndian.PutUint32(userData[12:16], 16)      // UserDataHeaderSize

	dir := t.TempDir()
	path := filepath.Join(dir, "shunted.mpq")
	if err := os.WriteFile(path, append(userData, archive...), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	if a.archiveOffset != shuntPad {
		t.Errorf("archiveOffset = %d, want %d", a.archiveOffset, shuntPad)
	}
	if a.userData == nil {
		t.Fatalf("userData = nil, want parsed shunt")
	}
	if !a.HasFile("test.txt") {
		t.Errorf("HasFile(%q) = false, want true", "test.txt")
	}
}

func TestOpenRejectsUndersizedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.mpq")
	if err := os.WriteFile(path, make([]byte, 4), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := Open(path); err == nil {
		t.Fatalf("Open of a %d-byte file succeeded, want KindFileInvalidSize error", 4)
	}
}
