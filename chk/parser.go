// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package chk

import "github.com/suprsokr/go-mpq/internal/byteio"

// Parse decodes a full CHK payload into its chunk sequence. Malformed
// chunks — an unrecognized tag, or a recognized tag whose declared size
// violates its rule — become *Unknown rather than aborting the stream; a
// trailing fragment shorter than a tag/size header ends the parse without
// an error and is not included in the result.
func Parse(data []byte) (ChunkList, error) {
	r := byteio.NewReader(data)
	var out ChunkList

	for r.Len() > 0 {
		if r.Len() < 8 {
			break
		}
		rawTag, err := r.Bytes(4)
		if err != nil {
			return out, err
		}
		var t Tag
		copy(t[:], rawTag)

		size, err := r.U32LE()
		if err != nil {
			return out, err
		}

		body, err := r.Bytes(int(size))
		if err != nil {
			// Declared size runs past the end of the buffer: the chunk
			// is unrecoverable, but prior chunks stand.
			out = append(out, Chunk{Tag: t, Size: size, Item: &Unknown{Raw: nil}})
			break
		}

		out = append(out, Chunk{Tag: t, Size: size, Item: decodeBody(t, size, body)})
	}

	return out, nil
}

func decodeBody(t Tag, size uint32, body []byte) any {
	sp, ok := registry[t]
	if !ok {
		return &Unknown{Raw: append([]byte(nil), body...)}
	}

	switch sp.rule.Kind {
	case RuleSized:
		if size != sp.rule.Param {
			return &Unknown{Raw: append([]byte(nil), body...)}
		}
	case RuleBoxedInt:
		if sp.rule.Param == 0 || size%sp.rule.Param != 0 {
			return &Unknown{Raw: append([]byte(nil), body...)}
		}
	case RuleBoxedDyn:
		// any size is acceptable
	}

	item, err := sp.decode(body)
	if err != nil {
		return &Unknown{Raw: append([]byte(nil), body...)}
	}
	return item
}
