// Package lookup implements the out-of-core sorted key->bases lookup:
// the sorted sub-vector (C3), the background vector-merger (C4) and
// file-merger (C5), the sparse key index (C6), and the lookup reader
// (C7) from spec.md section 4. It is the Go-idiomatic generalization of
// the teacher repo's cmd/bio-bam-sort/sorter external merge-sort engine
// (sort.go, sortshard.go) from sam.Record to (key, packed_bases) pairs.
package lookup

import (
	"encoding/binary"

	"github.com/biodump/seqdump/dumperror"
	"github.com/biodump/seqdump/fourbit"
)

// Record is one (key, packed_bases) pair: spec.md's packed-bases record.
// Packed holds the fourbit-encoded body (2-byte length prefix + packed
// bases), as produced by fourbit.Pack.
type Record struct {
	Key    fourbit.Key
	Packed []byte
}

// keySize is the width of the on-disk/in-memory key field (8 bytes,
// little-endian, per spec.md section 3 -- note this is LE while the
// dna_len prefix inside Packed is big-endian; both are as specified).
const keySize = 8

// Size returns the total on-disk size of r: 8-byte key plus Packed.
func (r Record) Size() int { return keySize + len(r.Packed) }

// AppendTo appends r's on-disk encoding to dst and returns the result.
func (r Record) AppendTo(dst []byte) []byte {
	var keyBuf [keySize]byte
	binary.LittleEndian.PutUint64(keyBuf[:], uint64(r.Key))
	dst = append(dst, keyBuf[:]...)
	dst = append(dst, r.Packed...)
	return dst
}

// ReadRecord parses one Record from the start of buf, returning the
// number of bytes it occupied. Packed aliases buf; callers that retain
// the Record past the buffer's lifetime must copy it.
func ReadRecord(buf []byte) (rec Record, size int, err error) {
	if len(buf) < keySize {
		return Record{}, 0, dumperror.New(dumperror.IoFailure, "lookup.ReadRecord", fourbit.ErrTruncated)
	}
	key := fourbit.Key(binary.LittleEndian.Uint64(buf[:keySize]))
	_, packedSize, err := fourbit.DecodedLen(buf[keySize:])
	if err != nil {
		return Record{}, 0, dumperror.New(dumperror.IoFailure, "lookup.ReadRecord", err)
	}
	total := keySize + packedSize
	if len(buf) < total {
		return Record{}, 0, dumperror.New(dumperror.IoFailure, "lookup.ReadRecord", fourbit.ErrTruncated)
	}
	return Record{Key: key, Packed: buf[keySize:total]}, total, nil
}
