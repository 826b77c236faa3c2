package seqtable

import (
	"context"
	"fmt"
)

// FakeDatabase is an in-memory Database for tests, grounded on
// encoding/bamprovider/fakeprovider.go in the teacher repo: it returns
// canned rows instead of talking to a real columnar archive.
type FakeDatabase struct {
	Spots      []Spot
	Alignments []AlignmentRow
	// HasConsensus, if false, makes OpenSequenceTable("CONSENSUS") fail so
	// callers exercise the SEQUENCE fallback in OpenTable.
	HasConsensus bool
}

func (db *FakeDatabase) OpenSequenceTable(ctx context.Context, name string) (Table, error) {
	if name == ConsensusTableName && !db.HasConsensus {
		return nil, fmt.Errorf("seqtable: no CONSENSUS table in this archive")
	}
	if name != ConsensusTableName && name != SequenceTableName && name != "" {
		return nil, fmt.Errorf("seqtable: no such table %q", name)
	}
	resolved := name
	if resolved == "" {
		resolved = SequenceTableName
	}
	return &fakeTable{name: resolved, spots: db.Spots}, nil
}

func (db *FakeDatabase) OpenAlignmentTable(ctx context.Context) (AlignmentTable, error) {
	return &fakeAlignmentTable{rows: db.Alignments}, nil
}

type fakeTable struct {
	name  string
	spots []Spot
}

func (t *fakeTable) Name() string { return t.name }

func (t *fakeTable) OpenCursor(ctx context.Context, columns []string) (Cursor, error) {
	return &fakeCursor{spots: t.spots}, nil
}

type fakeCursor struct{ spots []Spot }

func (c *fakeCursor) RowRange() (uint64, uint64, error) {
	if len(c.spots) == 0 {
		return 0, 0, nil
	}
	return c.spots[0].RowID, uint64(len(c.spots)), nil
}

func (c *fakeCursor) ReadInto(rowID uint64, spot *Spot) error {
	for i := range c.spots {
		if c.spots[i].RowID == rowID {
			*spot = c.spots[i]
			return nil
		}
	}
	return fmt.Errorf("seqtable: no row %d", rowID)
}

func (c *fakeCursor) Close() error { return nil }

type fakeAlignmentTable struct{ rows []AlignmentRow }

func (t *fakeAlignmentTable) OpenCursor(ctx context.Context) (AlignmentCursor, error) {
	return &fakeAlignmentCursor{rows: t.rows}, nil
}

type fakeAlignmentCursor struct{ rows []AlignmentRow }

func (c *fakeAlignmentCursor) RowRange() (uint64, uint64, error) {
	if len(c.rows) == 0 {
		return 0, 0, nil
	}
	return c.rows[0].RowID, uint64(len(c.rows)), nil
}

func (c *fakeAlignmentCursor) ReadInto(rowID uint64, row *AlignmentRow) error {
	for i := range c.rows {
		if c.rows[i].RowID == rowID {
			*row = c.rows[i]
			return nil
		}
	}
	return fmt.Errorf("seqtable: no alignment row %d", rowID)
}

func (c *fakeAlignmentCursor) Close() error { return nil }
