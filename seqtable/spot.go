// Package seqtable defines the narrow interfaces the join pipeline needs
// from the columnar sequence-read archive, and the row-range partitioner
// (spec.md C8/C9). The archive runtime itself — cursors, cells, accession
// resolution — is an external collaborator out of scope for this repo
// (spec.md section 1); only its contract is defined here, alongside an
// in-memory fake used by tests (grounded on
// encoding/bamprovider/fakeprovider.go in the teacher repo).
package seqtable

// ReadType is the READ_TYPE bit-flag column: whether a read is
// biological or technical, and whether it is stored reverse-complemented
// relative to the reference/assembly.
type ReadType uint8

const (
	// ReadTypeBiological is set for biological reads; when clear, the
	// read is technical (e.g. adapter, barcode).
	ReadTypeBiological ReadType = 1 << 0
	// ReadTypeReverse is set when the read's bases, as stored, are the
	// reverse complement of the original molecule.
	ReadTypeReverse ReadType = 1 << 2
)

// IsTechnical reports whether t marks a technical (non-biological) read.
func (t ReadType) IsTechnical() bool { return t&ReadTypeBiological == 0 }

// IsReverse reports whether t marks a reverse-oriented read.
func (t ReadType) IsReverse() bool { return t&ReadTypeReverse != 0 }

// Spot is one row of the sequence (or consensus) table: spec.md section 3.
type Spot struct {
	RowID uint64
	Name  string

	// PrimaryAlignmentID holds, for each of up to two reads, the
	// alignment row id whose bases must be joined in, or 0 if the read's
	// bases are present inline in CmpRead.
	PrimaryAlignmentID [2]uint64

	// CmpRead holds the inline bases of unaligned reads only,
	// concatenated in read order.
	CmpRead []byte

	// Quality holds one quality byte per base of the full (reconstructed)
	// spot, already length-reconciled against sum(ReadLen) — see
	// reconcileQuality in iterator.go.
	Quality []byte

	ReadLen  []int
	ReadType []ReadType

	SpotGroup string
}

// NumReads returns the number of reads this spot declares.
func (s *Spot) NumReads() int { return len(s.ReadLen) }

// TotalLen returns sum(ReadLen).
func (s *Spot) TotalLen() int {
	n := 0
	for _, l := range s.ReadLen {
		n += l
	}
	return n
}

// ReadOffset returns the base offset of read i within the full
// reconstructed spot.
func (s *Spot) ReadOffset(i int) int {
	off := 0
	for j := 0; j < i; j++ {
		off += s.ReadLen[j]
	}
	return off
}

// IsAligned reports whether read i's bases live on the alignment table.
func (s *Spot) IsAligned(i int) bool {
	return s.PrimaryAlignmentID[i] != 0
}

// RequiredColumns lists the sequence-table columns the iterator declares
// up front, matching spec.md C9.
var RequiredColumns = []string{
	"NAME", "PRIMARY_ALIGNMENT_ID", "CMP_READ", "QUALITY", "READ_LEN", "READ_TYPE", "SPOT_GROUP",
}

// AlignmentRow is one row of the alignment table: spec.md section 3.
type AlignmentRow struct {
	RowID      uint64
	SpotID     uint64
	ReadID     int // 1 or 2
	RawRead    []byte
	ReadLength int
}
