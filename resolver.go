// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// FindQuery narrows FindFile's search. Locale and Platform are pointers so
// "unspecified" (match any) is distinguishable from "request the neutral
// value" (0).
type FindQuery struct {
	Name     string
	Locale   *Locale
	Platform *uint16
}

// Pointer is the (block-table entry, encryption key) tuple FindFile
// resolves a name to; ReadFile consumes it directly.
type Pointer struct {
	archive    *Archive
	blockIndex uint32
	entry      blockTableEntry
	key        uint32
}

// FindFile resolves name to a Pointer per spec §4.8: hash the path three
// ways, linear-probe the classic hash table from the table-hash slot,
// tracking the best language/platform candidate rather than committing to
// the first plausible match, then validate the resolved block entry.
func (a *Archive) FindFile(name string) (*Pointer, error) {
	return a.FindFileQuery(FindQuery{Name: name})
}

func (a *Archive) FindFileQuery(q FindQuery) (*Pointer, error) {
	if len(a.hashTable) == 0 {
		return nil, newErr(KindFileDataMissing, q.Name, fmt.Errorf("no hash table"))
	}

	// Unrestricted queries (no locale/platform pinning) are cacheable: the
	// probe result depends only on the name and the archive's own tables,
	// neither of which change after Open.
	cacheable := q.Locale == nil && q.Platform == nil
	var cacheKey uint64
	if cacheable {
		cacheKey = xxhash.Sum64String(q.Name)
		if ptr, ok := a.nameCache[cacheKey]; ok {
			return ptr, nil
		}
	}

	h1 := hashString(q.Name, HashTypeNameA)
	h2 := hashString(q.Name, HashTypeNameB)
	mask := uint32(len(a.hashTable)) - 1
	start := hashString(q.Name, HashTypeTableOffset) & mask

	type candidate struct {
		found bool
		index uint32
	}
	var best candidate

	idx := start
	for step := uint32(0); step < uint32(len(a.hashTable)); step++ {
		e := a.hashTable[idx]

		if e.BlockIndex == hashEntryEmpty {
			break
		}

		if e.BlockIndex != hashEntryDeleted && e.HashA == h1 && e.HashB == h2 &&
			(e.BlockIndex&entryCountMask) < uint32(len(a.blockTable)) {

			if q.Locale != nil && q.Platform != nil &&
				e.Locale == uint16(*q.Locale) && e.Platform == *q.Platform {
				best = candidate{true, idx}
				break
			}

			localeOK := q.Locale == nil || e.Locale == 0 || e.Locale == uint16(*q.Locale)
			platformOK := q.Platform == nil || e.Platform == 0 || e.Platform == *q.Platform
			if localeOK && platformOK && !best.found {
				best = candidate{true, idx}
			}
		}

		idx = (idx + 1) & mask
	}

	if !best.found {
		return nil, newErr(KindFileDataMissing, q.Name, fmt.Errorf("not found"))
	}

	blockIndex := a.hashTable[best.index].BlockIndex & entryCountMask
	entry := a.blockTable[blockIndex]

	if !entry.exists() {
		return nil, newErr(KindFileDataMissing, q.Name, fmt.Errorf("block entry does not exist"))
	}
	if !entry.isAnyCompression() && uint64(entry.FileSize) > uint64(a.size) {
		return nil, newErr(KindFileCorruptData, q.Name, fmt.Errorf(
			"uncompressed size %d exceeds archive length %d (protector tamper?)", entry.FileSize, a.size))
	}

	key := uint32(0)
	if entry.isEncrypted() {
		key = fileKey(q.Name, uint64(entry.FilePos), entry.FileSize, entry.Flags)
	}

	ptr := &Pointer{archive: a, blockIndex: blockIndex, entry: entry, key: key}
	if cacheable {
		a.nameCache[cacheKey] = ptr
	}
	return ptr, nil
}

// HasFile reports whether name resolves to an existing, non-deleted entry.
func (a *Archive) HasFile(name string) bool {
	ptr, err := a.FindFile(name)
	if err != nil {
		return false
	}
	return !ptr.entry.isDeleteMarker()
}
