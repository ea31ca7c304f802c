// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"bytes"
	"testing"
)

func TestDecodeHashTableRoundTrip(t *testing.T) {
	entry := hashTableEntry{HashA: 0x11111111, HashB: 0x22222222, Locale: 0x0409, Platform: 0, BlockIndex: 7}
	buf := make([]byte, hashEntrySize)
	binLE32(buf[0:4], entry.HashA)
	binLE32(buf[4:8], entry.HashB)
	binLE16(buf[8:10], entry.Locale)
	binLE16(buf[10:12], entry.Platform)
	binLE32(buf[12:16], entry.BlockIndex)

	got, err := decodeHashTable(buf)
	if err != nil {
		t.Fatalf("decodeHashTable: %v", err)
	}
	if len(got) != 1 || got[0] != entry {
		t.Fatalf("decodeHashTable = %+v, want [%+v]", got, entry)
	}
}

func TestDecodeHashTableRejectsMisalignedSize(t *testing.T) {
	if _, err := decodeHashTable(make([]byte, hashEntrySize+1)); err == nil {
		t.Fatalf("decodeHashTable of a misaligned buffer succeeded, want KindInvalidLen error")
	}
}

func TestDecodeBlockTableRoundTrip(t *testing.T) {
	entry := blockTableEntry{FilePos: 0x1000, CompressedSize: 200, FileSize: 400, Flags: fileExists | fileCompress}
	buf := make([]byte, blockEntrySize)
	binLE32(buf[0:4], entry.FilePos)
	binLE32(buf[4:8], entry.CompressedSize)
	binLE32(buf[8:12], entry.FileSize)
	binLE32(buf[12:16], entry.Flags)

	got, err := decodeBlockTable(buf)
	if err != nil {
		t.Fatalf("decodeBlockTable: %v", err)
	}
	if len(got) != 1 || got[0] != entry {
		t.Fatalf("decodeBlockTable = %+v, want [%+v]", got, entry)
	}
}

func TestReadRawTableDecrypts(t *testing.T) {
	entry := hashTableEntry{HashA: 0xAAAAAAAA, HashB: 0xBBBBBBBB, BlockIndex: 3}
	plain := make([]byte, hashEntrySize)
	binLE32(plain[0:4], entry.HashA)
	binLE32(plain[4:8], entry.HashB)
	binLE32(plain[12:16], entry.BlockIndex)

	cipher := append([]byte(nil), plain...)
	encryptBytesForTest(cipher, hashKeyHashTable)

	got, err := readRawTable(bytes.NewReader(cipher), 0, 0, len(cipher), hashKeyHashTable, "hash table")
	if err != nil {
		t.Fatalf("readRawTable: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("readRawTable decrypted = %x, want %x", got, plain)
	}
}

func TestVerifyTableDigestRejectsSizeMismatch(t *testing.T) {
	if err := verifyTableDigest("hash table", 99, make([]byte, 16), [16]byte{}); err == nil {
		t.Fatalf("verifyTableDigest with a mismatched declared size succeeded, want an error")
	}
}

func TestParseHETTableFixedWidthIndexes(t *testing.T) {
	// TableSize, MaxFileCount, HashTableSize=2, HashEntrySize=8,
	// TotalIndexSize, IndexSizeExtra, IndexSize=8, BlockTableSize=2.
	var body []byte
	fields := []uint32{0, 0, 2, 8, 0, 0, 8, 2}
	for _, f := range fields {
		b := make([]byte, 4)
		binLE32(b, f)
		body = append(body, b...)
	}
	body = append(body, 0xAB, 0xCD) // nameHashes, 1 byte per slot
	body = append(body, 0x05, 0xFF) // blockIndexes, 8 bits each

	het, err := parseHETTable(body)
	if err != nil {
		t.Fatalf("parseHETTable: %v", err)
	}
	if het.hashTableSize != 2 {
		t.Errorf("hashTableSize = %d, want 2", het.hashTableSize)
	}
	want := []uint64{5, 255}
	if len(het.blockIndexes) != len(want) {
		t.Fatalf("len(blockIndexes) = %d, want %d", len(het.blockIndexes), len(want))
	}
	for i, w := range want {
		if het.blockIndexes[i] != w {
			t.Errorf("blockIndexes[%d] = %d, want %d", i, het.blockIndexes[i], w)
		}
	}
}

func binLE32(b []byte, v uint32) {
	b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
}

func binLE16(b []byte, v uint16) {
	b[0], b[1] = byte(v), byte(v>>8)
}
