// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Archive is a read-only handle on an opened MPQ container: the underlying
// file, where its header actually starts (nonzero when preceded by a
// user-data shunt), and its parsed metadata tables. It is not safe for
// concurrent use by multiple goroutines; spec §5's parallelism model is
// "clone the file handle per thread" (Open a second *Archive on the same
// path), not shared-handle locking.
type Archive struct {
	file          *os.File
	reader        io.ReaderAt
	size          int64
	archiveOffset int64

	userData *userData
	header   *header

	hashTable  []hashTableEntry
	blockTable []blockTableEntry
	het        *hetTable
	bet        *betTable

	opts options

	// nameCache memoizes FindFile results by xxhash of the query name, so
	// repeat lookups of the same path (common when a caller cross-
	// references CHK chunk contents back into the archive) skip the
	// linear probe. It is not itself part of the MPQ hash algorithm, which
	// remains bit-exact per §4.3 regardless of this cache.
	nameCache map[uint64]*Pointer
}

// Open opens path and parses its header and metadata tables, using default
// options (128 MiB size ceiling, no sector CRC verification).
func Open(path string) (*Archive, error) {
	return OpenWithOptions(path)
}

// OpenWithOptions is Open plus functional options (see options.go).
func OpenWithOptions(path string, opts ...Option) (*Archive, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, newErr(KindInvalidIO, path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, newErr(KindInvalidIO, path, err)
	}
	size := info.Size()
	if size < minArchiveSize {
		f.Close()
		return nil, newErr(KindFileInvalidSize, path, fmt.Errorf("%d bytes is smaller than a V1 header", size))
	}
	if size > o.maxArchiveSize {
		f.Close()
		return nil, newErr(KindFileInvalidSize, path, fmt.Errorf("%d bytes exceeds the %d byte ceiling", size, o.maxArchiveSize))
	}

	a := &Archive{file: f, reader: f, size: size, opts: o, nameCache: make(map[uint64]*Pointer)}

	hdr, ud, off, err := findHeader(f, size)
	if err != nil {
		f.Close()
		return nil, err
	}
	a.header = hdr
	a.userData = ud
	a.archiveOffset = off

	if err := a.loadTables(); err != nil {
		f.Close()
		return nil, err
	}

	return a, nil
}

func (a *Archive) loadTables() error {
	h := a.header

	hashBuf, err := readRawTable(a.reader, a.archiveOffset, h.hashTableOffset64(), int(h.htableEntries())*hashEntrySize, hashKeyHashTable, "hash table")
	if err != nil {
		return err
	}
	if h.version() >= formatV4 {
		if err := verifyTableDigest("hash table", h.v4.HashTableSize64, hashBuf, h.v4.MD5HashTable); err != nil {
			return err
		}
	}
	hashTable, err := decodeHashTable(hashBuf)
	if err != nil {
		return err
	}
	a.hashTable = hashTable

	blockBuf, err := readRawTable(a.reader, a.archiveOffset, h.blockTableOffset64(), int(h.btableEntries())*blockEntrySize, hashKeyBlockTable, "block table")
	if err != nil {
		return err
	}
	if h.version() >= formatV4 {
		if err := verifyTableDigest("block table", h.v4.BlockTableSize64, blockBuf, h.v4.MD5BlockTable); err != nil {
			return err
		}
	}
	blockTable, err := decodeBlockTable(blockBuf)
	if err != nil {
		return err
	}
	a.blockTable = blockTable

	if h.version() >= formatV3 {
		if hetOff := h.hetTableOffset64(); hetOff != 0 {
			_, body, err := readExtTableHeader(a.reader, a.archiveOffset+int64(hetOff), MagicHetTable)
			if err != nil {
				return err
			}
			het, err := parseHETTable(body)
			if err != nil {
				return err
			}
			a.het = het
		}
		if betOff := h.betTableOffset64(); betOff != 0 {
			_, body, err := readExtTableHeader(a.reader, a.archiveOffset+int64(betOff), MagicBetTable)
			if err != nil {
				return err
			}
			bet, err := parseBETTable(body)
			if err != nil {
				return err
			}
			a.bet = bet
		}
	}

	return nil
}

// Close releases the underlying file descriptor. The Archive must not be
// used afterward.
func (a *Archive) Close() error {
	return a.file.Close()
}

// ListFiles reads the "(listfile)" special file, one path per line. It is
// conventional, not guaranteed: many archives omit it, in which case
// ListFiles returns ErrFileNotFound.
func (a *Archive) ListFiles() ([]string, error) {
	data, err := a.readSpecial("(listfile)")
	if err != nil {
		return nil, err
	}

	text := string(data)
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (a *Archive) readSpecial(name string) ([]byte, error) {
	ptr, err := a.FindFile(name)
	if err != nil {
		return nil, err
	}
	return a.ReadFile(ptr)
}
