// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// ReadFile extracts the bytes a Pointer resolves to, per spec §4.9. Three
// disjoint paths: PATCH_FILE bodies are left unsupported (an explicit Open
// Question in spec §9), SINGLE_UNIT bodies are one contiguous blob, and
// everything else is read sector by sector with either a real (encrypted)
// or synthesized (uncompressed) offset table.
func (a *Archive) ReadFile(ptr *Pointer) ([]byte, error) {
	e := ptr.entry

	if e.isPatchFile() {
		return nil, newErr(KindFileInvalidType, "", fmt.Errorf("PATCH_FILE extraction is unsupported"))
	}
	if e.CompressedSize == 0 || e.FileSize == 0 {
		return []byte{}, nil
	}

	base := a.archiveOffset + int64(e.FilePos)

	if e.isSingleUnit() {
		raw := make([]byte, e.CompressedSize)
		if _, err := a.reader.ReadAt(raw, base); err != nil {
			return nil, newErr(KindInvalidIO, "", err)
		}
		if e.isEncrypted() {
			decryptBytesPadded(raw, ptr.key)
		}
		out, err := decodeChunkBody(e, raw, e.FileSize, e.FileSize)
		if err != nil {
			return nil, err
		}
		if uint32(len(out)) != e.FileSize {
			return nil, newErr(KindFileCorruptData, "", fmt.Errorf("single unit produced %d bytes, want %d", len(out), e.FileSize))
		}
		return out, nil
	}

	sectorSize := a.header.sectorSize()
	n := int((uint64(e.FileSize) + uint64(sectorSize) - 1) / uint64(sectorSize))
	m := n + 1
	if e.hasSectorCRC() {
		m++
	}

	table := make([]uint32, m)
	if e.isAnyCompression() {
		tblBuf := make([]byte, m*4)
		if _, err := a.reader.ReadAt(tblBuf, base); err != nil {
			return nil, newErr(KindInvalidIO, "", err)
		}
		if e.isEncrypted() {
			decryptBytesPadded(tblBuf, ptr.key-1)
		}
		for i := 0; i < m; i++ {
			table[i] = binary.LittleEndian.Uint32(tblBuf[i*4:])
		}
		if table[n] != e.CompressedSize {
			return nil, newErr(KindFileCorruptData, "", fmt.Errorf(
				"sector offset table end %d disagrees with compressed size %d", table[n], e.CompressedSize))
		}
	} else {
		for i := 0; i < n; i++ {
			table[i] = uint32(i * sectorSize)
		}
		table[n] = e.CompressedSize
	}

	out := make([]byte, e.FileSize)
	for i := 0; i < n; i++ {
		segLen := table[i+1] - table[i]
		if segLen > uint32(sectorSize) {
			return nil, newErr(KindFileCorruptData, "", fmt.Errorf("sector %d length %d exceeds sector size %d", i, segLen, sectorSize))
		}

		segBuf := make([]byte, segLen)
		if _, err := a.reader.ReadAt(segBuf, base+int64(table[i])); err != nil {
			return nil, newErr(KindInvalidIO, "", err)
		}
		if e.isEncrypted() {
			decryptBytesPadded(segBuf, ptr.key+uint32(i))
		}

		if e.hasSectorCRC() && a.opts.verifySectorCRC {
			if err := verifySectorChecksum(a.reader, base, table, n, i, segBuf); err != nil {
				return nil, err
			}
		}

		want := uint32(sectorSize)
		if remain := e.FileSize - uint32(i)*uint32(sectorSize); remain < want {
			want = remain
		}

		decoded, err := decodeChunkBody(e, segBuf, want, uint32(sectorSize))
		if err != nil {
			return nil, err
		}
		if uint32(len(decoded)) != want {
			return nil, newErr(KindFileCorruptData, "", fmt.Errorf("sector %d produced %d bytes, want %d", i, len(decoded), want))
		}
		copy(out[uint32(i)*uint32(sectorSize):], decoded)
	}

	return out, nil
}

// decodeChunkBody implements the shared "chunk decoder" used by both the
// single-unit and sectored paths: a chunk is fake-compressed when its
// length already equals one of the sizes the format considers "no
// compression needed" (its own uncompressed size, a full sector, or the
// whole file) — in that case the bytes pass straight through.
func decodeChunkBody(e blockTableEntry, raw []byte, uncompressedSize, sectorSize uint32) ([]byte, error) {
	if uint32(len(raw)) == uncompressedSize || uint32(len(raw)) == sectorSize || uint32(len(raw)) == e.FileSize {
		return raw, nil
	}

	if e.isCompressed() {
		mask := raw[0]
		return decompressSector(mask, raw[1:], uncompressedSize)
	}
	if e.isImploded() {
		return decodePKWareExplode(raw, uncompressedSize)
	}
	return raw, nil
}

// verifySectorChecksum checks sector i's decrypted, still-compressed bytes
// against the CRC32 trailer that follows the last sector's data when
// SECTOR_CRC is set (the offset table's final slot marks the end of that
// trailer). This is the "verify" branch of the §9 Open Question; callers
// opt in via WithSectorCRCVerification.
func verifySectorChecksum(r io.ReaderAt, base int64, table []uint32, sectorCount, i int, segBuf []byte) error {
	trailerStart := int64(table[sectorCount])
	crcBuf := make([]byte, 4)
	if _, err := r.ReadAt(crcBuf, base+trailerStart+int64(i*4)); err != nil {
		return newErr(KindInvalidIO, "", err)
	}
	want := binary.LittleEndian.Uint32(crcBuf)
	got := crc32.ChecksumIEEE(segBuf)
	if got != want {
		return newErr(KindFileCorruptData, "", fmt.Errorf("sector %d crc32 %08X want %08X", i, got, want))
	}
	return nil
}

// decryptBytesPadded decrypts data of any length in place: the complete
// leading 4-byte words are decrypted and a trailing partial word (1-3
// bytes, as in the last sector of a file whose size is not a multiple of
// 4) is left unchanged.
func decryptBytesPadded(data []byte, key uint32) {
	if len(data)%4 == 0 {
		decryptBytes(data, key)
		return
	}
	full := len(data) - len(data)%4
	decryptBytes(data[:full], key)
}
