package seqtable

import (
	"context"

	"github.com/pkg/errors"
)

// ConsensusTableName and SequenceTableName are the two row sources
// OpenTable chooses between.
const (
	ConsensusTableName = "CONSENSUS"
	SequenceTableName  = "SEQUENCE"
)

// OpenTable opens the sequence (or consensus) table for db. If override
// is non-empty, it is opened as given — an explicit --table flag always
// wins. Otherwise OpenTable probes for CONSENSUS and falls back to
// SEQUENCE, resolving the open question in spec.md section 9 in favor of
// explicit-flag precedence (see SPEC_FULL.md).
func OpenTable(ctx context.Context, db Database, override string) (Table, error) {
	if override != "" {
		t, err := db.OpenSequenceTable(ctx, override)
		if err != nil {
			return nil, errors.Wrapf(err, "seqtable: open table %q", override)
		}
		return t, nil
	}
	if t, err := db.OpenSequenceTable(ctx, ConsensusTableName); err == nil {
		return t, nil
	}
	t, err := db.OpenSequenceTable(ctx, SequenceTableName)
	if err != nil {
		return nil, errors.Wrap(err, "seqtable: open SEQUENCE table")
	}
	return t, nil
}
