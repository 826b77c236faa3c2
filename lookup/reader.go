package lookup

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/biodump/seqdump/dumperror"
	"github.com/biodump/seqdump/fourbit"
)

// readBufSize sizes the bufio.Reader wrapping each random-access read
// position. It is a fixed per-reader size; no option changes it.
const readBufSize = 64 * 1024

// errOutOfRange is wrapped as NotFound when a requested key exceeds the
// file's max_key (spec.md C7/section 8: "lookup out-of-range").
var errOutOfRange = errors.New("lookup: key exceeds max_key")

// errMismatch is wrapped as NotFound when an exact seek lands past the
// requested key without ever matching it: a mis-seek, not a silent
// substitution (spec.md section 4.7).
var errMismatch = errors.New("lookup: key not found")

// Reader provides random-access lookup into the final merged lookup file
// (spec.md C7). Each Reader owns an independent *os.File handle so
// concurrent join workers never share file-position state; the file
// package used elsewhere in this module doesn't expose the raw
// byte-offset Seek this component needs, so Reader opens its data file
// directly through the standard library rather than the file
// abstraction the merge stages use (nothing else in the pipeline seeks
// into an open file).
type Reader struct {
	f   *os.File
	br  *bufio.Reader
	pos int64

	idx *Index

	curKey    fourbit.Key
	curRecord Record
	haveCur   bool
}

// OpenReader opens the final data file at dataPath. If indexPath is
// non-empty, its sparse index is loaded into memory and used to speed up
// Seek; an empty indexPath falls back to a full linear scan from the
// start of the file on every Seek, mirroring the original's
// full_table_seek path (original_source/tools/fasterq-dump/lookup_reader.c)
// for callers that choose not to build an index.
func OpenReader(dataPath, indexPath string) (*Reader, error) {
	f, err := os.Open(dataPath)
	if err != nil {
		return nil, dumperror.New(dumperror.IoFailure, "lookup.OpenReader", err)
	}
	r := &Reader{f: f, br: bufio.NewReaderSize(f, readBufSize)}
	if indexPath != "" {
		idxFile, err := os.Open(indexPath)
		if err != nil {
			f.Close() //nolint:errcheck
			return nil, dumperror.New(dumperror.IoFailure, "lookup.OpenReader", err)
		}
		idx, err := ReadIndex(idxFile)
		closeErr := idxFile.Close()
		if err != nil {
			f.Close() //nolint:errcheck
			return nil, err
		}
		if closeErr != nil {
			f.Close() //nolint:errcheck
			return nil, dumperror.New(dumperror.IoFailure, "lookup.OpenReader", closeErr)
		}
		r.idx = idx
	}
	return r, nil
}

// Close releases the reader's file handle.
func (r *Reader) Close() error {
	if err := r.f.Close(); err != nil {
		return dumperror.New(dumperror.IoFailure, "lookup.Reader.Close", err)
	}
	return nil
}

func (r *Reader) repositionTo(offset int64) error {
	if _, err := r.f.Seek(offset, io.SeekStart); err != nil {
		return dumperror.New(dumperror.IoFailure, "lookup.Reader.Seek", err)
	}
	r.pos = offset
	r.br.Reset(r.f)
	r.haveCur = false
	return nil
}

func (r *Reader) readNext() error {
	var head [keySize]byte
	if _, err := io.ReadFull(r.br, head[:]); err != nil {
		if err == io.EOF {
			return dumperror.New(dumperror.NotFound, "lookup.Reader", errMismatch)
		}
		return dumperror.New(dumperror.IoFailure, "lookup.Reader", err)
	}
	key := fourbit.Key(binary.LittleEndian.Uint64(head[:]))
	packed, err := readPacked(r.br)
	if err != nil {
		return err
	}
	r.curKey = key
	r.curRecord = Record{Key: key, Packed: packed}
	r.haveCur = true
	return nil
}

// Seek positions the reader at the first record whose key matches want.
// If exact is false, it only approximates (using the sparse index or a
// scan from the start) and returns the key of the record it landed on,
// without requiring a match; exact searches continue scanning forward
// until want is found (fourbit.KeysEqual semantics, so a request for a
// spot's read-1 key also matches a record stored under its read-2
// sibling, but not the other way round) or the
// scan provably passes it, in which case the error is NotFound rather
// than a silently wrong record (spec.md section 4.7).
func (r *Reader) Seek(want fourbit.Key, exact bool) (foundKey fourbit.Key, err error) {
	if r.idx != nil && r.idx.MaxKey != 0 && want > r.idx.MaxKey {
		return 0, dumperror.New(dumperror.NotFound, "lookup.Reader.Seek", errOutOfRange)
	}

	var startOffset int64
	if r.idx != nil {
		if _, offset, ok := r.idx.GetNearestOffset(want); ok {
			startOffset = offset
		}
	}
	if err := r.repositionTo(startOffset); err != nil {
		return 0, err
	}

	if !exact {
		if err := r.readNext(); err != nil {
			return 0, err
		}
		return r.curKey, nil
	}

	for {
		if err := r.readNext(); err != nil {
			return 0, err
		}
		if fourbit.KeysEqual(want, r.curKey) {
			return r.curKey, nil
		}
		if r.curKey > want {
			return 0, dumperror.New(dumperror.NotFound, "lookup.Reader.Seek", errMismatch)
		}
	}
}

// Next advances to the following record without seeking, for callers
// doing a full linear scan.
func (r *Reader) Next() (fourbit.Key, []byte, error) {
	if err := r.readNext(); err != nil {
		return 0, nil, err
	}
	return r.curKey, r.curRecord.Packed, nil
}

// LookupBases returns the ASCII bases for (spotID, readID), applying
// reverse-complement if reverse is true, reusing dst's backing array
// when it has enough capacity. It seeks only if the record the reader
// last read does not already match the wanted key (fourbit.KeysEqual);
// fetching the other mate of the record just read still seeks.
func (r *Reader) LookupBases(spotID uint64, readID int, reverse bool, dst []byte) ([]byte, error) {
	want := fourbit.MakeKey(spotID, readID)
	if !(r.haveCur && fourbit.KeysEqual(want, r.curKey)) {
		found, err := r.Seek(want, true)
		if err != nil {
			return nil, err
		}
		if !fourbit.KeysEqual(want, found) {
			return nil, dumperror.New(dumperror.NotFound, "lookup.Reader.LookupBases", errMismatch)
		}
	}
	return fourbit.Unpack(dst, r.curRecord.Packed, reverse)
}

// readPacked reads one fourbit-packed body (2-byte big-endian length
// prefix plus its packed bytes) from r.
func readPacked(r *bufio.Reader) ([]byte, error) {
	var lenPrefix [fourbit.LenPrefixSize]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return nil, dumperror.New(dumperror.IoFailure, "lookup.Reader", err)
	}
	n := int(binary.BigEndian.Uint16(lenPrefix[:]))
	body := make([]byte, fourbit.LenPrefixSize+fourbit.PackedLen(n))
	copy(body, lenPrefix[:])
	if _, err := io.ReadFull(r, body[fourbit.LenPrefixSize:]); err != nil {
		return nil, dumperror.New(dumperror.IoFailure, "lookup.Reader", err)
	}
	return body, nil
}
