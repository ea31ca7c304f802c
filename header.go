// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	archiveMagicLE  = 0x1A51504D // "MPQ\x1A" read as a little-endian uint32
	userDataMagicLE = 0x1B51504D // "MPQ\x1B" read as a little-endian uint32

	scanStride = 512
)

// v2Ext, v3Ext and v4Ext are the wire-exact extension records appended by
// each header revision. Keeping them separate (rather than re-declaring the
// whole cumulative struct) is what lets findHeader read "only the new
// fields" the way spec.md's version-chaining design note asks for.
type v2Ext struct {
	HiBlockTableOffset64 uint64
	HashTableOffsetHi    uint16
	BlockTableOffsetHi   uint16
}

type v3Ext struct {
	ArchiveSize64    uint64
	BetTableOffset64 uint64
	HetTableOffset64 uint64
}

type v4Ext struct {
	HashTableSize64    uint64
	BlockTableSize64   uint64
	HiBlockTableSize64 uint64
	HetTableSize64     uint64
	BetTableSize64     uint64
	RawChunkSize       uint32

	MD5BlockTable   [16]byte
	MD5HashTable    [16]byte
	MD5HiBlockTable [16]byte
	MD5BetTable     [16]byte
	MD5HetTable     [16]byte
	MD5MpqHeader    [16]byte
}

// findHeader scans r (of total length size) for the archive header,
// skipping any user-data shunt, per spec §4.6: scan forward in 512-byte
// increments; a user-data magic repositions the scan by its HeaderOffset
// field rather than by a fixed stride.
func findHeader(r io.ReaderAt, size int64) (*header, *userData, int64, error) {
	var ud *userData
	cur := int64(0)

	for {
		if cur < 0 || cur+4 > size {
			return nil, nil, 0, newErr(KindInvalidMagic, "", fmt.Errorf("no archive header found"))
		}

		magicBuf := make([]byte, 4)
		if _, err := r.ReadAt(magicBuf, cur); err != nil {
			return nil, nil, 0, newErr(KindInvalidIO, "", err)
		}
		magic := binary.LittleEndian.Uint32(magicBuf)

		switch magic {
		case archiveMagicLE:
			h, err := readHeader(r, cur, size)
			if err != nil {
				return nil, nil, 0, err
			}
			return h, ud, cur, nil

		case userDataMagicLE:
			buf := make([]byte, 16)
			if _, err := r.ReadAt(buf, cur); err != nil {
				return nil, nil, 0, newErr(KindInvalidIO, "", err)
			}
			next := &userData{
				Magic:              binary.LittleEndian.Uint32(buf[0:4]),
				UserDataSize:       binary.LittleEndian.Uint32(buf[4:8]),
				HeaderOffset:       binary.LittleEndian.Uint32(buf[8:12]),
				UserDataHeaderSize: binary.LittleEndian.Uint32(buf[12:16]),
			}
			if next.UserDataHeaderSize > next.UserDataSize || uint64(next.UserDataSize) > uint64(next.HeaderOffset) {
				return nil, nil, 0, newErr(KindInvalidLen, "user data", fmt.Errorf(
					"udata_header_size=%d udata_size=%d header_offset=%d", next.UserDataHeaderSize, next.UserDataSize, next.HeaderOffset))
			}
			// A second shunt is a warning, not a failure; the later one wins.
			ud = next
			cur += int64(next.HeaderOffset)

		default:
			cur += scanStride
		}
	}
}

// readHeader parses the V1 header at off and chains in V2/V3/V4 extensions
// according to FormatVersion, the way spec §4.6/§9 describe: each revision
// is an independent parser that, given the predecessor, reads only the
// bytes it adds.
func readHeader(r io.ReaderAt, off int64, fileSize int64) (*header, error) {
	base := make([]byte, headerSizeV1)
	if _, err := r.ReadAt(base, off); err != nil {
		return nil, newErr(KindInvalidIO, "header", err)
	}

	h := &header{}
	v1 := &h.v4.headerV3.headerV2.headerV1
	v1.Magic = binary.LittleEndian.Uint32(base[0:4])
	v1.HeaderSize = binary.LittleEndian.Uint32(base[4:8])
	v1.ArchiveSize = binary.LittleEndian.Uint32(base[8:12])
	v1.FormatVersion = binary.LittleEndian.Uint16(base[12:14])
	v1.SectorSizeShift = binary.LittleEndian.Uint16(base[14:16])
	v1.HashTableOffset = binary.LittleEndian.Uint32(base[16:20])
	v1.BlockTableOffset = binary.LittleEndian.Uint32(base[20:24])
	v1.HashTableEntries = binary.LittleEndian.Uint32(base[24:28])
	v1.BlockTableEntries = binary.LittleEndian.Uint32(base[28:32])

	if v1.HeaderSize < headerSizeV1 {
		return nil, newErr(KindInvalidLen, "header", fmt.Errorf("header_size %d below minimum", v1.HeaderSize))
	}

	pos := off + headerSizeV1

	if v1.FormatVersion >= formatV2 && v1.HeaderSize >= headerSizeV2 {
		var ext v2Ext
		if err := readFixed(r, pos, &ext); err != nil {
			return nil, newErr(KindInvalidIO, "header v2", err)
		}
		h.v4.headerV3.headerV2.HiBlockTableOffset64 = ext.HiBlockTableOffset64
		h.v4.headerV3.headerV2.HashTableOffsetHi = ext.HashTableOffsetHi
		h.v4.headerV3.headerV2.BlockTableOffsetHi = ext.BlockTableOffsetHi
		pos += headerSizeV2 - headerSizeV1
	}

	if v1.FormatVersion >= formatV3 && v1.HeaderSize >= headerSizeV3 {
		var ext v3Ext
		if err := readFixed(r, pos, &ext); err != nil {
			return nil, newErr(KindInvalidIO, "header v3", err)
		}
		h.v4.headerV3.ArchiveSize64 = ext.ArchiveSize64
		h.v4.headerV3.BetTableOffset64 = ext.BetTableOffset64
		h.v4.headerV3.HetTableOffset64 = ext.HetTableOffset64
		pos += headerSizeV3 - headerSizeV2
	}

	if v1.FormatVersion >= formatV4 && v1.HeaderSize >= headerSizeV4 {
		var ext v4Ext
		if err := readFixed(r, pos, &ext); err != nil {
			return nil, newErr(KindInvalidIO, "header v4", err)
		}
		h.v4.HashTableSize64 = ext.HashTableSize64
		h.v4.BlockTableSize64 = ext.BlockTableSize64
		h.v4.HiBlockTableSize64 = ext.HiBlockTableSize64
		h.v4.HetTableSize64 = ext.HetTableSize64
		h.v4.BetTableSize64 = ext.BetTableSize64
		h.v4.RawChunkSize = ext.RawChunkSize
		h.v4.MD5BlockTable = ext.MD5BlockTable
		h.v4.MD5HashTable = ext.MD5HashTable
		h.v4.MD5HiBlockTable = ext.MD5HiBlockTable
		h.v4.MD5BetTable = ext.MD5BetTable
		h.v4.MD5HetTable = ext.MD5HetTable
		h.v4.MD5MpqHeader = ext.MD5MpqHeader

		if err := verifyHeaderDigest(r, off, headerSizeV4-16, h.v4.MD5MpqHeader); err != nil {
			return nil, err
		}
	}

	return h, nil
}

// verifyHeaderDigest recomputes the MD5 over the header bytes [off, off+n)
// — i.e. everything up to and including md5_het_table — and compares it
// against the stored self-digest, per spec §4.6 and §8's universal property.
func verifyHeaderDigest(r io.ReaderAt, off int64, n int, want [16]byte) error {
	buf := make([]byte, n)
	if _, err := r.ReadAt(buf, off); err != nil {
		return newErr(KindInvalidIO, "header digest", err)
	}
	got := md5.Sum(buf)
	if !bytes.Equal(got[:], want[:]) {
		return newErr(KindInvalidMD5, "header", fmt.Errorf("got %x want %x", got, want))
	}
	return nil
}

// readFixed decodes a fixed-size little-endian struct at an absolute offset.
func readFixed(r io.ReaderAt, off int64, v any) error {
	size := binary.Size(v)
	if size < 0 {
		return fmt.Errorf("readFixed: non-fixed-size type %T", v)
	}
	buf := make([]byte, size)
	if _, err := r.ReadAt(buf, off); err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(buf), binary.LittleEndian, v)
}
