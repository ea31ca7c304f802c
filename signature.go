// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"encoding/binary"
	"fmt"
)

// SignatureVersion distinguishes the old weak (RSA-1024+MD5) signature from
// the newer strong (RSA-2048+SHA-1) one.
type SignatureVersion uint32

const (
	SignatureWeak   SignatureVersion = 0
	SignatureStrong SignatureVersion = 1
)

// Signature is the parsed "(signature)" special file. This module does not
// attempt cryptographic verification (that needs Blizzard's private keys
// and is out of scope for a reader), only structural parsing.
type Signature struct {
	Version   SignatureVersion
	Signature []byte
}

// ReadSignature parses the "(signature)" special file if present. It
// returns ErrFileNotFound (via FindFile) when the archive has none; most
// archives don't.
func (a *Archive) ReadSignature() (*Signature, error) {
	data, err := a.readSpecial("(signature)")
	if err != nil {
		return nil, err
	}
	if len(data) < 8 {
		return nil, newErr(KindInvalidLen, "signature", fmt.Errorf("%d bytes is smaller than the 8 byte header", len(data)))
	}

	version := binary.LittleEndian.Uint32(data[0:4])
	sigLen := binary.LittleEndian.Uint32(data[4:8])
	if uint64(len(data)) < uint64(8)+uint64(sigLen) {
		return nil, newErr(KindInvalidLen, "signature", fmt.Errorf("declares %d bytes, have %d", sigLen, len(data)-8))
	}

	sig := make([]byte, sigLen)
	copy(sig, data[8:8+sigLen])

	return &Signature{Version: SignatureVersion(version), Signature: sig}, nil
}

// HasStrongSignatureTrailer reports whether a "NGIS"-tagged strong
// signature block is appended immediately after the archive body — a
// separate mechanism from the "(signature)" special file, covering the
// whole archive rather than one file. Per spec §3's data model, Archive
// carries this as an optional trailer; this module only detects its
// presence, the same boundary ReadSignature draws around cryptographic
// verification.
func (a *Archive) HasStrongSignatureTrailer() (bool, error) {
	end := a.archiveOffset + int64(a.header.archiveSize64())
	if end+4 > a.size {
		return false, nil
	}

	buf := make([]byte, 4)
	if _, err := a.reader.ReadAt(buf, end); err != nil {
		return false, newErr(KindInvalidIO, "signature trailer", err)
	}

	var m Magic
	copy(m[:], buf)
	return m == MagicSignature, nil
}
