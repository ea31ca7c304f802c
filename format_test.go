// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import "testing"

func TestHeaderV1EntryCountMasking(t *testing.T) {
	h := headerV1{HashTableEntries: 0xF0000010}
	if got := h.htableEntries(); got != 0x00000010 {
		t.Errorf("htableEntries() = %#08x, want %#08x", got, 0x00000010)
	}
}

func TestHeaderV1SectorSize(t *testing.T) {
	h := headerV1{SectorSizeShift: 3}
	if got := h.sectorSize(); got != 4096 {
		t.Errorf("sectorSize() = %d, want 4096", got)
	}
}
