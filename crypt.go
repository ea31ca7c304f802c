// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import "encoding/binary"

// HashType selects which of the four offsets into cryptTable hashString
// mixes through. The four variants share one table and one algorithm; only
// the additive offset (the HashType value itself) differs, which is what lets the same
// recurrence double as both a hash and a stream-cipher keystream.
type HashType uint32

const (
	HashTypeTableOffset HashType = 0x000
	HashTypeNameA       HashType = 0x100
	HashTypeNameB       HashType = 0x200
	HashTypeFileKey     HashType = 0x300
)

// cryptTable is the 0x500-entry mixing table shared by hashString and the
// block cipher. Built once at init from the seed/recurrence Blizzard's
// original implementation used: seed = 0x00100001, advanced by
// seed = (seed*125 + 3) mod 0x2AAAAB twice per table slot.
var cryptTable [0x500]uint32

// asciiFold maps each input byte to its hashing-normalized form: lowercase
// letters fold to uppercase and '/' folds to '\\', matching how MPQ treats
// archive paths as case- and separator-insensitive. Every byte outside
// those two classes maps to itself.
var asciiFold [256]byte

func init() {
	seed := uint32(0x00100001)
	for index1 := 0; index1 < 0x100; index1++ {
		index2 := index1
		for i := 0; i < 5; i++ {
			seed = (seed*125 + 3) % 0x2AAAAB
			temp1 := (seed & 0xFFFF) << 0x10

			seed = (seed*125 + 3) % 0x2AAAAB
			temp2 := seed & 0xFFFF

			cryptTable[index2] = temp1 | temp2
			index2 += 0x100
		}
	}

	for i := 0; i < 256; i++ {
		c := byte(i)
		switch {
		case c >= 'a' && c <= 'z':
			c -= 0x20
		case c == '/':
			c = '\\'
		}
		asciiFold[i] = c
	}
}

// hashString computes one of the four MPQ path hashes.
//
// Literal test vectors (see crypt_test.go):
//
//	hashString("(hash table)", HashTypeFileKey)   == 0xC3AF3770
//	hashString("(block table)", HashTypeFileKey)  == 0xEC83B3A3
//	hashString("(listfile)", HashTypeTableOffset) == 0x5F3DE859
func hashString(s string, hashType HashType) uint32 {
	seed1 := uint32(0x7FED7FED)
	seed2 := uint32(0xEEEEEEEE)

	for i := 0; i < len(s); i++ {
		ch := uint32(asciiFold[s[i]])

		seed1 = cryptTable[uint32(hashType)+ch] ^ (seed1 + seed2)
		seed2 = ch + seed1 + seed2 + (seed2 << 5) + 3
	}

	return seed1
}

// decryptBlock decrypts data in place, one little-endian uint32 word at a
// time, advancing key by the standard MPQ stream-cipher recurrence.
func decryptBlock(data []uint32, key uint32) {
	seed := uint32(0xEEEEEEEE)

	for i := range data {
		seed += cryptTable[0x400+(key&0xFF)]
		encrypted := data[i]
		plain := encrypted ^ (key + seed)
		key = ((^key << 0x15) + 0x11111111) | (key >> 0x0B)
		seed = plain + seed + (seed << 5) + 3
		data[i] = plain
	}
}

// encryptBlock is decryptBlock's inverse. The read path never calls it; the
// tests use it to build encrypted fixtures, since this module never writes
// archives.
func encryptBlock(data []uint32, key uint32) {
	seed := uint32(0xEEEEEEEE)

	for i := range data {
		seed += cryptTable[0x400+(key&0xFF)]
		plain := data[i]
		encrypted := plain ^ (key + seed)
		key = ((^key << 0x15) + 0x11111111) | (key >> 0x0B)
		seed = plain + seed + (seed << 5) + 3
		data[i] = encrypted
	}
}

// decryptBytes decrypts a byte slice in place. len(data) must be a multiple
// of 4; callers (table.go, sector.go) size their buffers accordingly.
func decryptBytes(data []byte, key uint32) {
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}

	decryptBlock(words, key)

	for i := range words {
		binary.LittleEndian.PutUint32(data[i*4:], words[i])
	}
}

// fileKey derives the decryption key for a file's sectors from its archive
// path and, when MPQ_FILE_FIX_KEY is set, its block offset and size.
func fileKey(filename string, blockOffset uint64, fileSize uint32, flags uint32) uint32 {
	plainName := filename
	if idx := lastIndexOfSlash(filename); idx >= 0 {
		plainName = filename[idx+1:]
	}

	key := hashString(plainName, HashTypeFileKey)

	if flags&fileFixKey != 0 {
		key = (key + uint32(blockOffset)) ^ fileSize
	}

	return key
}

func lastIndexOfSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '\\' || s[i] == '/' {
			return i
		}
	}
	return -1
}
