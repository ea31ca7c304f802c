// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import "encoding/binary"

// Format revision codes as stored in headerV1.FormatVersion.
const (
	formatV1 uint16 = 0x0000
	formatV2 uint16 = 0x0001
	formatV3 uint16 = 0x0002
	formatV4 uint16 = 0x0003
)

const (
	headerSizeV1 = 0x20
	headerSizeV2 = 0x2C
	headerSizeV3 = 0x44 // V3 appends ArchiveSize64, BetTableOffset64, HetTableOffset64 (24 bytes)
	headerSizeV4 = 0xD0 // V4 appends six table sizes, raw chunk size, six MD5 digests (140 bytes)

	// entryCountMask clamps hash/block table entry counts to 28 bits, the
	// way the reference implementation tolerates garbage high bits.
	entryCountMask = 0x0FFFFFFF
)

// Block table entry flags (MPQ_FILE_*).
const (
	fileImplode      = 0x00000100
	fileCompress     = 0x00000200
	fileEncrypted    = 0x00010000
	fileFixKey       = 0x00020000
	filePatchFile    = 0x00100000
	fileSingleUnit   = 0x01000000
	fileDeleteMarker = 0x02000000
	fileSectorCRC    = 0x04000000
	fileSignature    = 0x10000000
	fileExists       = 0x80000000
)

// Hash table entry sentinels for the BlockIndex field.
const (
	hashEntryEmpty   = 0xFFFFFFFF // never used; probing stops here
	hashEntryDeleted = 0xFFFFFFFE // deleted; probing continues
)

// headerV1 is the fixed 32-byte base record every archive starts with.
type headerV1 struct {
	Magic            uint32 // "MPQ\x1A"
	HeaderSize       uint32
	ArchiveSize      uint32 // deprecated from V2 onward; superseded by V3's 64-bit field
	FormatVersion    uint16
	SectorSizeShift  uint16
	HashTableOffset  uint32
	BlockTableOffset uint32
	HashTableEntries uint32
	BlockTableEntries uint32
}

func (h *headerV1) sectorSize() int { return 512 << h.SectorSizeShift }

func (h *headerV1) htableEntries() uint32 { return h.HashTableEntries & entryCountMask }
func (h *headerV1) btableEntries() uint32 { return h.BlockTableEntries & entryCountMask }

// headerV2 adds the high halves of the table offsets and the hi-block table,
// needed once an archive passes 4 GiB.
type headerV2 struct {
	headerV1
	HiBlockTableOffset64 uint64
	HashTableOffsetHi    uint16
	BlockTableOffsetHi   uint16
}

func (h *headerV2) hashTableOffset64() uint64 {
	return uint64(h.HashTableOffset) | uint64(h.HashTableOffsetHi)<<32
}

func (h *headerV2) blockTableOffset64() uint64 {
	return uint64(h.BlockTableOffset) | uint64(h.BlockTableOffsetHi)<<32
}

// headerV3 adds a proper 64-bit archive size and the extended table
// positions (HET/BET are introduced here).
type headerV3 struct {
	headerV2
	ArchiveSize64    uint64
	BetTableOffset64 uint64
	HetTableOffset64 uint64
}

// headerV4 adds compressed table sizes (used to bound the read and verify
// against the stored length) plus the six MD5 digests covering the header
// itself and each table body.
type headerV4 struct {
	headerV3
	HashTableSize64  uint64
	BlockTableSize64 uint64
	HiBlockTableSize64 uint64
	HetTableSize64   uint64
	BetTableSize64   uint64
	RawChunkSize     uint32

	MD5BlockTable   [16]byte
	MD5HashTable    [16]byte
	MD5HiBlockTable [16]byte
	MD5BetTable     [16]byte
	MD5HetTable     [16]byte
	MD5MpqHeader    [16]byte
}

// header is the parsed, version-chained archive header. Only the fields up
// to the archive's actual FormatVersion are populated; readers should use
// the accessor methods rather than reaching past FormatVersion's fields.
type header struct {
	v4 headerV4
}

func (h *header) version() uint16          { return h.v4.FormatVersion }
func (h *header) headerSize() uint32       { return h.v4.HeaderSize }
func (h *header) sectorSize() int          { return h.v4.sectorSize() }
func (h *header) htableEntries() uint32    { return h.v4.htableEntries() }
func (h *header) btableEntries() uint32    { return h.v4.btableEntries() }

func (h *header) hashTableOffset64() uint64 {
	if h.v4.FormatVersion >= formatV2 {
		return h.v4.hashTableOffset64()
	}
	return uint64(h.v4.HashTableOffset)
}

func (h *header) blockTableOffset64() uint64 {
	if h.v4.FormatVersion >= formatV2 {
		return h.v4.blockTableOffset64()
	}
	return uint64(h.v4.BlockTableOffset)
}

func (h *header) archiveSize64() uint64 {
	if h.v4.FormatVersion >= formatV3 {
		return h.v4.ArchiveSize64
	}
	return uint64(h.v4.ArchiveSize)
}

func (h *header) hetTableOffset64() uint64 {
	if h.v4.FormatVersion >= formatV3 {
		return h.v4.HetTableOffset64
	}
	return 0
}

func (h *header) betTableOffset64() uint64 {
	if h.v4.FormatVersion >= formatV3 {
		return h.v4.BetTableOffset64
	}
	return 0
}

// userData is the optional 16-byte shunt that may precede the real header.
type userData struct {
	Magic            uint32 // "MPQ\x1B"
	UserDataSize     uint32
	HeaderOffset     uint32 // where the parser should resume scanning
	UserDataHeaderSize uint32
}

// hashTableEntry is one 16-byte classic hash table record.
type hashTableEntry struct {
	HashA      uint32
	HashB      uint32
	Locale     uint16
	Platform   uint16
	BlockIndex uint32
}

func decodeHashTableEntry(b []byte) hashTableEntry {
	return hashTableEntry{
		HashA:      binary.LittleEndian.Uint32(b[0:4]),
		HashB:      binary.LittleEndian.Uint32(b[4:8]),
		Locale:     binary.LittleEndian.Uint16(b[8:10]),
		Platform:   binary.LittleEndian.Uint16(b[10:12]),
		BlockIndex: binary.LittleEndian.Uint32(b[12:16]),
	}
}

// blockTableEntry is one 16-byte classic block table record. FilePos is
// relative to the archive's start offset, not the file's start offset.
type blockTableEntry struct {
	FilePos        uint32
	CompressedSize uint32
	FileSize       uint32
	Flags          uint32
}

func decodeBlockTableEntry(b []byte) blockTableEntry {
	return blockTableEntry{
		FilePos:        binary.LittleEndian.Uint32(b[0:4]),
		CompressedSize: binary.LittleEndian.Uint32(b[4:8]),
		FileSize:       binary.LittleEndian.Uint32(b[8:12]),
		Flags:          binary.LittleEndian.Uint32(b[12:16]),
	}
}

func (b blockTableEntry) isCompressed() bool { return b.Flags&fileCompress != 0 }
func (b blockTableEntry) isImploded() bool   { return b.Flags&fileImplode != 0 }
func (b blockTableEntry) isAnyCompression() bool {
	return b.isCompressed() || b.isImploded()
}
func (b blockTableEntry) isEncrypted() bool   { return b.Flags&fileEncrypted != 0 }
func (b blockTableEntry) isSingleUnit() bool  { return b.Flags&fileSingleUnit != 0 }
func (b blockTableEntry) isPatchFile() bool   { return b.Flags&filePatchFile != 0 }
func (b blockTableEntry) hasSectorCRC() bool  { return b.Flags&fileSectorCRC != 0 }
func (b blockTableEntry) exists() bool        { return b.Flags&fileExists != 0 }
func (b blockTableEntry) isDeleteMarker() bool { return b.Flags&fileDeleteMarker != 0 }
func (b blockTableEntry) isSignature() bool   { return b.Flags&fileSignature != 0 }
