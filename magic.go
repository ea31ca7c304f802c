// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import "fmt"

// Magic is a 4-byte tagged signature, used for the archive header ("MPQ\x1A"),
// user data ("MPQ\x1B"), the extended tables ("HET\x1A", "BET\x1A"), and the
// strong signature trailer ("NGIS"). Comparing Magic values is just a [4]byte
// comparison, but the named constants and String method keep call sites from
// re-spelling the byte literals.
type Magic [4]byte

var (
	MagicArchive   = Magic{'M', 'P', 'Q', 0x1A}
	MagicUserData  = Magic{'M', 'P', 'Q', 0x1B}
	MagicHetTable  = Magic{'H', 'E', 'T', 0x1A}
	MagicBetTable  = Magic{'B', 'E', 'T', 0x1A}
	MagicSignature = Magic{'N', 'G', 'I', 'S'}
)

func (m Magic) String() string {
	b := make([]byte, 0, 4)
	for _, c := range m {
		if c >= 0x20 && c < 0x7F {
			b = append(b, c)
		} else {
			return fmt.Sprintf("%02X%02X%02X%02X", m[0], m[1], m[2], m[3])
		}
	}
	return string(b)
}

func (m Magic) valid() bool {
	switch m {
	case MagicArchive, MagicUserData, MagicHetTable, MagicBetTable, MagicSignature:
		return true
	default:
		return false
	}
}
