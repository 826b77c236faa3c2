// Package fourbit implements the 4-bit-per-base nucleotide codec and the
// (spot_id, read_id) composite key used by the lookup pipeline.
//
// Encoding: A=1, C=2, G=4, T=8; any other input byte packs as 0 (N on
// decode). Two bases share one body byte, the even-indexed base in the
// upper nibble. A packed record is a 2-byte big-endian base count followed
// by ceil(n/2) body bytes; an odd count zero-pads the final nibble.
package fourbit

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// MaxLen is the largest base count a single packed record can hold: the
// count is stored in a 16-bit field.
const MaxLen = 0xFFFF

// LenPrefixSize is the size, in bytes, of the base-count header that
// precedes every packed body.
const LenPrefixSize = 2

var (
	// ErrEmpty is returned by Pack when given a zero-length base string.
	ErrEmpty = errors.New("fourbit: empty base sequence")
	// ErrTooLong is returned by Pack when the base string exceeds MaxLen.
	ErrTooLong = errors.New("fourbit: base sequence exceeds 65535 bases")
	// ErrTruncated is returned by Unpack/DecodedLen when packed is shorter
	// than its own length header claims.
	ErrTruncated = errors.New("fourbit: truncated packed record")
)

// encodeTable maps an ASCII base to its 4-bit code. Unrecognized bytes
// (including lowercase acgt) encode as 0, decoded back out as N.
var encodeTable = func() [256]byte {
	var t [256]byte
	t['A'] = 1
	t['C'] = 2
	t['G'] = 4
	t['T'] = 8
	return t
}()

// decodeTable maps a 4-bit code back to its ASCII base. Codes other than
// 1, 2, 4, 8 decode to 'N'.
var decodeTable = [16]byte{
	'N', 'A', 'C', 'N', 'G', 'N', 'N', 'N', 'T', 'N', 'N', 'N', 'N', 'N', 'N', 'N',
}

// revComp8 maps an ASCII base to its complement for in-place reverse
// complement decode. Grounded on the same table shape as
// biosimd.ReverseComp8Inplace's revComp8Table: A<->T, C<->G, everything
// else (including N) maps to N.
var revComp8 = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = 'N'
	}
	t['A'] = 'T'
	t['T'] = 'A'
	t['C'] = 'G'
	t['G'] = 'C'
	return t
}()

// PackedLen returns the number of body bytes needed to hold n packed
// bases.
func PackedLen(n int) int {
	return (n + 1) / 2
}

// Pack encodes ascii bases into a packed record: a 2-byte big-endian base
// count followed by the packed body. dst is reused when it has enough
// capacity, and the returned slice aliases it; callers that need to keep
// the result across repeated Pack calls must copy it out first.
func Pack(dst []byte, bases []byte) ([]byte, error) {
	n := len(bases)
	if n == 0 {
		return nil, ErrEmpty
	}
	if n > MaxLen {
		return nil, ErrTooLong
	}
	total := LenPrefixSize + PackedLen(n)
	if cap(dst) < total {
		dst = make([]byte, total)
	} else {
		dst = dst[:total]
	}
	binary.BigEndian.PutUint16(dst[:LenPrefixSize], uint16(n))
	body := dst[LenPrefixSize:]
	for i := 0; i < n; i += 2 {
		hi := encodeTable[bases[i]]
		var lo byte
		if i+1 < n {
			lo = encodeTable[bases[i+1]]
		}
		body[i/2] = (hi << 4) | lo
	}
	return dst, nil
}

// DecodedLen reads the base count from the start of a packed record
// without decoding its body, also returning the total size (header +
// body) the record occupies in packed.
func DecodedLen(packed []byte) (dnaLen uint16, recordSize int, err error) {
	if len(packed) < LenPrefixSize {
		return 0, 0, ErrTruncated
	}
	dnaLen = binary.BigEndian.Uint16(packed[:LenPrefixSize])
	recordSize = LenPrefixSize + PackedLen(int(dnaLen))
	if len(packed) < recordSize {
		return 0, 0, ErrTruncated
	}
	return dnaLen, recordSize, nil
}

// Unpack decodes a packed record (as produced by Pack) back into ASCII
// bases. When reverse is true, the result is the reverse complement of
// the encoded sequence instead of the sequence itself. dst is reused when
// it has enough capacity.
func Unpack(dst []byte, packed []byte, reverse bool) ([]byte, error) {
	n, _, err := DecodedLen(packed)
	if err != nil {
		return nil, err
	}
	body := packed[LenPrefixSize:]
	if cap(dst) < int(n) {
		dst = make([]byte, n)
	} else {
		dst = dst[:n]
	}
	for i := 0; i < int(n); i++ {
		b := body[i/2]
		var nibble byte
		if i%2 == 0 {
			nibble = b >> 4
		} else {
			nibble = b & 0x0f
		}
		dst[i] = decodeTable[nibble]
	}
	if reverse {
		reverseComplementInplace(dst)
	}
	return dst, nil
}

// reverseComplementInplace reverse-complements ascii in place, the same
// two-pointer walk as biosimd.ReverseComp8Inplace.
func reverseComplementInplace(ascii []byte) {
	n := len(ascii)
	half := n / 2
	for i, j := 0, n-1; i != half; i, j = i+1, j-1 {
		ascii[i], ascii[j] = revComp8[ascii[j]], revComp8[ascii[i]]
	}
	if n%2 == 1 {
		ascii[half] = revComp8[ascii[half]]
	}
}
