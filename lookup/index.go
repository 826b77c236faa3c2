package lookup

import (
	"bufio"
	"encoding/binary"
	"io"
	"sort"

	"github.com/biodump/seqdump/dumperror"
	"github.com/biodump/seqdump/fourbit"
	"github.com/pkg/errors"
)

// indexMagic and indexVersion identify the sparse-index file format
// (spec.md C6/section 6: "magic, version, checkpoint stride C, and
// max_key").
const (
	indexMagic   uint32 = 0x53515831 // "SQX1"
	indexVersion uint32 = 1
	indexHeaderSize = 4 + 4 + 4 + 8 // magic + version + stride + maxKey
)

// DefaultIndexStride is the default number of records between sparse
// index checkpoints (spec.md section 3: "typically 1024-16384").
const DefaultIndexStride = 4096

type checkpoint struct {
	key    fourbit.Key
	offset int64
}

// IndexBuilder accumulates sparse-index checkpoints while the file-merger
// writes the final sorted file, emitting one checkpoint every Stride
// records (spec.md C5/C6).
type IndexBuilder struct {
	Stride      int
	checkpoints []checkpoint
	sinceCP     int
	maxKey      fourbit.Key
	seenAny     bool
}

// NewIndexBuilder creates a builder with the given checkpoint stride.
func NewIndexBuilder(stride int) *IndexBuilder {
	if stride <= 0 {
		stride = DefaultIndexStride
	}
	return &IndexBuilder{Stride: stride}
}

// Observe records that a record with the given key is about to be
// written at preWriteOffset (the file offset before the record's bytes
// are written).
func (b *IndexBuilder) Observe(key fourbit.Key, preWriteOffset int64) {
	if b.sinceCP == 0 {
		b.checkpoints = append(b.checkpoints, checkpoint{key, preWriteOffset})
	}
	b.sinceCP++
	if b.sinceCP >= b.Stride {
		b.sinceCP = 0
	}
	if !b.seenAny || key > b.maxKey {
		b.maxKey = key
		b.seenAny = true
	}
}

// WriteTo serializes the accumulated index (header + checkpoint pairs) to w.
func (b *IndexBuilder) WriteTo(w io.Writer) error {
	var header [indexHeaderSize]byte
	binary.LittleEndian.PutUint32(header[0:4], indexMagic)
	binary.LittleEndian.PutUint32(header[4:8], indexVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(b.Stride))
	binary.LittleEndian.PutUint64(header[12:20], uint64(b.maxKey))
	if _, err := w.Write(header[:]); err != nil {
		return dumperror.New(dumperror.IoFailure, "lookup.IndexBuilder.WriteTo", err)
	}
	buf := make([]byte, 16*len(b.checkpoints))
	for i, cp := range b.checkpoints {
		binary.LittleEndian.PutUint64(buf[i*16:i*16+8], uint64(cp.key))
		binary.LittleEndian.PutUint64(buf[i*16+8:i*16+16], uint64(cp.offset))
	}
	if _, err := w.Write(buf); err != nil {
		return dumperror.New(dumperror.IoFailure, "lookup.IndexBuilder.WriteTo", err)
	}
	return nil
}

// Index is the read-only, in-memory form of the sparse index, used by
// Reader.Seek.
type Index struct {
	Stride      int
	MaxKey      fourbit.Key
	checkpoints []checkpoint
}

// ReadIndex parses a full sparse-index file from r. The whole index is
// kept in memory, per spec.md section 3 ("the index fits comfortably in
// memory").
func ReadIndex(r io.Reader) (*Index, error) {
	br := bufio.NewReader(r)
	var header [indexHeaderSize]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, dumperror.New(dumperror.IoFailure, "lookup.ReadIndex", err)
	}
	magic := binary.LittleEndian.Uint32(header[0:4])
	if magic != indexMagic {
		return nil, dumperror.New(dumperror.DataInvalid, "lookup.ReadIndex", errors.New("bad index magic"))
	}
	version := binary.LittleEndian.Uint32(header[4:8])
	if version != indexVersion {
		return nil, dumperror.New(dumperror.DataInvalid, "lookup.ReadIndex", errors.Errorf("unsupported index version %d", version))
	}
	stride := int(binary.LittleEndian.Uint32(header[8:12]))
	maxKey := fourbit.Key(binary.LittleEndian.Uint64(header[12:20]))

	idx := &Index{Stride: stride, MaxKey: maxKey}
	pair := make([]byte, 16)
	for {
		if _, err := io.ReadFull(br, pair); err != nil {
			if err == io.EOF {
				break
			}
			return nil, dumperror.New(dumperror.IoFailure, "lookup.ReadIndex", err)
		}
		idx.checkpoints = append(idx.checkpoints, checkpoint{
			key:    fourbit.Key(binary.LittleEndian.Uint64(pair[0:8])),
			offset: int64(binary.LittleEndian.Uint64(pair[8:16])),
		})
	}
	return idx, nil
}

// GetMaxKey returns the largest key present in the indexed file.
func (idx *Index) GetMaxKey() fourbit.Key { return idx.MaxKey }

// GetNearestOffset returns the greatest checkpoint key <= key and its
// file offset, per spec.md C6. ok is false if key precedes every
// checkpoint (in practice, only possible if key is less than the
// smallest key in the file).
func (idx *Index) GetNearestOffset(key fourbit.Key) (checkpointKey fourbit.Key, offset int64, ok bool) {
	i := sort.Search(len(idx.checkpoints), func(i int) bool {
		return idx.checkpoints[i].key > key
	})
	if i == 0 {
		return 0, 0, false
	}
	cp := idx.checkpoints[i-1]
	return cp.key, cp.offset, true
}
