// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io"

	"github.com/suprsokr/go-mpq/internal/bitio"
)

// Fixed table keys: the file-hash of the literal special names, matching
// the literal test vectors in spec §4.3/§8.
const (
	hashKeyHashTable  = 0xC3AF3770 // hashString("(hash table)", HashTypeFileKey)
	hashKeyBlockTable = 0xEC83B3A3 // hashString("(block table)", HashTypeFileKey)
)

// readRawTable seeks to archiveOffset+tableOffset, reads size bytes, and
// decrypts them in place with key. V4 callers additionally supply the
// declared table size and MD5 digest to verify against.
func readRawTable(r io.ReaderAt, archiveOffset int64, tableOffset uint64, size int, key uint32, name string) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := r.ReadAt(buf, archiveOffset+int64(tableOffset)); err != nil {
		return nil, newErr(KindInvalidIO, name, err)
	}
	decryptBytes(buf, key)
	return buf, nil
}

func verifyTableDigest(name string, declaredSize uint64, buf []byte, wantMD5 [16]byte) error {
	if declaredSize != 0 && declaredSize != uint64(len(buf)) {
		return newErr(KindInvalidLen, name, fmt.Errorf("declared %d got %d", declaredSize, len(buf)))
	}
	got := md5.Sum(buf)
	if !bytes.Equal(got[:], wantMD5[:]) {
		return newErr(KindInvalidMD5, name, fmt.Errorf("got %x want %x", got, wantMD5))
	}
	return nil
}

const (
	hashEntrySize  = 16
	blockEntrySize = 16
)

func decodeHashTable(buf []byte) ([]hashTableEntry, error) {
	if len(buf)%hashEntrySize != 0 {
		return nil, newErr(KindInvalidLen, "hash table", fmt.Errorf("size %d not a multiple of %d", len(buf), hashEntrySize))
	}
	n := len(buf) / hashEntrySize
	entries := make([]hashTableEntry, n)
	for i := 0; i < n; i++ {
		entries[i] = decodeHashTableEntry(buf[i*hashEntrySize:])
	}
	return entries, nil
}

func decodeBlockTable(buf []byte) ([]blockTableEntry, error) {
	if len(buf)%blockEntrySize != 0 {
		return nil, newErr(KindInvalidLen, "block table", fmt.Errorf("size %d not a multiple of %d", len(buf), blockEntrySize))
	}
	n := len(buf) / blockEntrySize
	entries := make([]blockTableEntry, n)
	for i := 0; i < n; i++ {
		entries[i] = decodeBlockTableEntry(buf[i*blockEntrySize:])
	}
	return entries, nil
}

// extTableHeader is the common 12-byte header shared by HET and BET: it is
// never encrypted, unlike the body that follows it.
type extTableHeader struct {
	Magic    Magic
	Version  uint32
	DataSize uint32
}

func readExtTableHeader(r io.ReaderAt, off int64, want Magic) (extTableHeader, []byte, error) {
	var h extTableHeader
	hdrBuf := make([]byte, 12)
	if _, err := r.ReadAt(hdrBuf, off); err != nil {
		return h, nil, newErr(KindInvalidIO, want.String(), err)
	}
	copy(h.Magic[:], hdrBuf[0:4])
	h.Version = leUint32(hdrBuf[4:8])
	h.DataSize = leUint32(hdrBuf[8:12])
	if h.Magic != want {
		return h, nil, newErr(KindInvalidMagic, want.String(), fmt.Errorf("got %s", h.Magic))
	}
	body := make([]byte, h.DataSize)
	if _, err := r.ReadAt(body, off+12); err != nil {
		return h, nil, newErr(KindInvalidIO, want.String(), err)
	}
	decryptBytes(body, tableKeyForMagic(want))
	return h, body, nil
}

func tableKeyForMagic(m Magic) uint32 {
	switch m {
	case MagicHetTable:
		return hashString("(het table)", HashTypeFileKey)
	case MagicBetTable:
		return hashString("(bet table)", HashTypeFileKey)
	default:
		return 0
	}
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// hetTable is the extended hash table introduced in V3: a flat array of
// truncated name hashes plus a bit-packed array of block-table indexes.
type hetTable struct {
	hashTableSize  uint32
	hashEntrySize  uint32 // bits per truncated hash, usually 8
	indexSize      uint32 // bits per block index entry
	nameHashes     []byte // 1 byte per slot, truncated name hash (hashEntrySize bits)
	blockIndexes   []uint64
}

func parseHETTable(body []byte) (*hetTable, error) {
	r := bytes.NewReader(body)
	var fields [8]uint32
	for i := range fields {
		b := make([]byte, 4)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, newErr(KindInvalidIO, "het table", err)
		}
		fields[i] = leUint32(b)
	}
	// fields: TableSize, MaxFileCount, HashTableSize, HashEntrySize,
	// TotalIndexSize, IndexSizeExtra, IndexSize, BlockTableSize.
	hashTableSize := fields[2]
	hashEntrySizeBits := fields[3]
	indexSizeBits := fields[6]
	blockTableSizeBytes := fields[7]

	hashBytes := make([]byte, hashTableSize)
	if _, err := io.ReadFull(r, hashBytes); err != nil {
		return nil, newErr(KindInvalidIO, "het table hashes", err)
	}

	indexBuf := make([]byte, blockTableSizeBytes)
	if _, err := io.ReadFull(r, indexBuf); err != nil {
		return nil, newErr(KindInvalidIO, "het table indexes", err)
	}

	br := bitio.NewReader(indexBuf)
	indexes := make([]uint64, hashTableSize)
	for i := range indexes {
		v, err := br.ReadBits(int(indexSizeBits))
		if err != nil {
			return nil, newErr(KindFileCorruptData, "het table indexes", err)
		}
		indexes[i] = v
	}

	return &hetTable{
		hashTableSize: hashTableSize,
		hashEntrySize: hashEntrySizeBits,
		indexSize:     indexSizeBits,
		nameHashes:    hashBytes,
		blockIndexes:  indexes,
	}, nil
}

// betTable is the extended block table introduced in V3: a packed array of
// fixed-width records (file position, sizes, flag index) and a parallel
// extended-precision name hash array used to break HET collisions.
type betTable struct {
	fileCount     uint32
	entryBitWidth uint32
	bitIdxFilePos uint32
	bitCntFilePos uint32
	bitIdxFSize   uint32
	bitCntFSize   uint32
	bitIdxCSize   uint32
	bitCntCSize   uint32
	bitIdxFlag    uint32
	bitCntFlag    uint32
	flags         []uint32
	records       []betRecord
	nameHash2     []uint64
	betHashSize   uint32
}

type betRecord struct {
	FilePos   uint64
	FileSize  uint64
	CmpSize   uint64
	FlagIndex uint32
}

func parseBETTable(body []byte) (*betTable, error) {
	r := bytes.NewReader(body)
	readU32 := func() (uint32, error) {
		b := make([]byte, 4)
		if _, err := io.ReadFull(r, b); err != nil {
			return 0, err
		}
		return leUint32(b), nil
	}

	var f [19]uint32
	for i := range f {
		v, err := readU32()
		if err != nil {
			return nil, newErr(KindInvalidIO, "bet table", err)
		}
		f[i] = v
	}
	// f: TableSize, FileCount, Unknown08, TableEntrySize,
	//    BitIdxFilePos, BitIdxFileSize, BitIdxCmpSize, BitIdxFlagIndex, BitIdxUnknown,
	//    BitCntFilePos, BitCntFileSize, BitCntCmpSize, BitCntFlagIndex, BitCntUnknown,
	//    TotalBetHashSize, BetHashSizeExtra, BetHashSize, BetHashArraySize, FlagCount
	fileCount := f[1]
	entryBitWidth := f[3]
	bitIdxFilePos, bitIdxFSize, bitIdxCSize, bitIdxFlag := f[4], f[5], f[6], f[7]
	bitCntFilePos, bitCntFSize, bitCntCSize, bitCntFlag := f[9], f[10], f[11], f[12]
	betHashSize := f[16]
	betHashArraySize := f[17]
	flagCount := f[18]

	flags := make([]uint32, flagCount)
	for i := range flags {
		v, err := readU32()
		if err != nil {
			return nil, newErr(KindInvalidIO, "bet table flags", err)
		}
		flags[i] = v
	}

	entryBytes := (int(entryBitWidth)*int(fileCount) + 7) / 8
	entryBuf := make([]byte, entryBytes)
	if _, err := io.ReadFull(r, entryBuf); err != nil {
		return nil, newErr(KindInvalidIO, "bet table entries", err)
	}

	records := make([]betRecord, fileCount)
	br := bitio.NewReader(entryBuf)
	for i := range records {
		raw, err := br.ReadBits(int(entryBitWidth))
		if err != nil {
			return nil, newErr(KindFileCorruptData, "bet table entries", err)
		}
		records[i] = betRecord{
			FilePos:   extractBitfield(raw, bitIdxFilePos, bitCntFilePos),
			FileSize:  extractBitfield(raw, bitIdxFSize, bitCntFSize),
			CmpSize:   extractBitfield(raw, bitIdxCSize, bitCntCSize),
			FlagIndex: uint32(extractBitfield(raw, bitIdxFlag, bitCntFlag)),
		}
	}

	hashBytes := make([]byte, betHashArraySize)
	if _, err := io.ReadFull(r, hashBytes); err != nil {
		return nil, newErr(KindInvalidIO, "bet table hashes", err)
	}
	hbr := bitio.NewReader(hashBytes)
	nameHash2 := make([]uint64, fileCount)
	for i := range nameHash2 {
		v, err := hbr.ReadBits(int(betHashSize))
		if err != nil {
			return nil, newErr(KindFileCorruptData, "bet table hashes", err)
		}
		nameHash2[i] = v
	}

	return &betTable{
		fileCount:     fileCount,
		entryBitWidth: entryBitWidth,
		flags:         flags,
		records:       records,
		nameHash2:     nameHash2,
		betHashSize:   betHashSize,
	}, nil
}

// extractBitfield pulls cnt bits starting at bit idx out of a value already
// read MSB-first into raw (raw occupies the low entryBitWidth bits).
func extractBitfield(raw uint64, idx, cnt uint32) uint64 {
	if cnt == 0 {
		return 0
	}
	if cnt >= 64 {
		return raw
	}
	mask := (uint64(1) << cnt) - 1
	return (raw >> idx) & mask
}
