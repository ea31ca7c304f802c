// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import "fmt"

// PatchMetadata is the parsed "(patch_metadata)" special file: the MD5 of
// the file this archive patches from, the MD5 of the result after
// patching, and the base file's size. Spec §9 leaves multi-archive
// patch-chain resolution out of scope; this is the single-archive piece of
// that machinery the teacher already had, kept because reading one
// archive's own patch metadata needs no orchestration across archives.
type PatchMetadata struct {
	BaseMD5      [16]byte
	PatchMD5     [16]byte
	BaseFileSize uint32
}

// ReadPatchMetadata reads and parses the "(patch_metadata)" special file.
// Most archives don't carry one; absent the file this returns
// ErrFileNotFound via FindFile.
func (a *Archive) ReadPatchMetadata() (*PatchMetadata, error) {
	data, err := a.readSpecial("(patch_metadata)")
	if err != nil {
		return nil, err
	}
	if len(data) < 36 {
		return nil, newErr(KindInvalidLen, "patch_metadata", fmt.Errorf("%d bytes is smaller than the 36 byte record", len(data)))
	}

	meta := &PatchMetadata{}
	copy(meta.BaseMD5[:], data[0:16])
	copy(meta.PatchMD5[:], data[16:32])
	meta.BaseFileSize = uint32(data[32]) | uint32(data[33])<<8 | uint32(data[34])<<16 | uint32(data[35])<<24

	return meta, nil
}
