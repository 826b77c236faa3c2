package seqtable

import "context"

// Cursor is the narrow read interface the join pipeline needs from the
// sequence (or consensus) table. A real implementation wraps the
// columnar archive's row cursor and cell cache; it is confined to one
// goroutine (spec.md section 5).
type Cursor interface {
	// RowRange returns the first row id and the number of rows visible
	// to this cursor.
	RowRange() (first uint64, count uint64, err error)

	// ReadInto populates spot with row rowID's columns. Implementations
	// may return views into cursor-owned buffers; callers must copy
	// before the next ReadInto call (spec.md C9).
	ReadInto(rowID uint64, spot *Spot) error

	Close() error
}

// Table opens cursors over a sequence (or consensus) table.
type Table interface {
	// Name returns the table name actually opened ("SEQUENCE" or
	// "CONSENSUS").
	Name() string
	OpenCursor(ctx context.Context, columns []string) (Cursor, error)
}

// AlignmentCursor is the narrow read interface over the alignment table.
type AlignmentCursor interface {
	RowRange() (first uint64, count uint64, err error)
	ReadInto(rowID uint64, row *AlignmentRow) error
	Close() error
}

// AlignmentTable opens cursors over the alignment table.
type AlignmentTable interface {
	OpenCursor(ctx context.Context) (AlignmentCursor, error)
}

// Database is the columnar archive handle: an accession or path resolves
// to one of these (resolution itself is out of scope; spec.md section 1).
type Database interface {
	// OpenSequenceTable opens "name" if non-empty; otherwise it probes
	// for CONSENSUS before falling back to SEQUENCE (see OpenTable and
	// SPEC_FULL.md's resolution of the CONSENSUS-vs-table-flag open
	// question).
	OpenSequenceTable(ctx context.Context, name string) (Table, error)
	OpenAlignmentTable(ctx context.Context) (AlignmentTable, error)
}
