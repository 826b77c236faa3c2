package join

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biodump/seqdump/seqtable"
)

func TestCoordinatorAlignedDatabaseSplitSpotFasta(t *testing.T) {
	db := &seqtable.FakeDatabase{
		Spots: []seqtable.Spot{{
			RowID:              1,
			Name:               "s1",
			PrimaryAlignmentID: [2]uint64{1, 2},
			Quality:            make([]byte, 8),
			ReadLen:            []int{4, 4},
			ReadType:           []seqtable.ReadType{seqtable.ReadTypeBiological, seqtable.ReadTypeBiological},
		}},
		Alignments: []seqtable.AlignmentRow{
			{RowID: 1, SpotID: 1, ReadID: 1, RawRead: []byte("AAAA"), ReadLength: 4},
			{RowID: 2, SpotID: 1, ReadID: 2, RawRead: []byte("CCCC"), ReadLength: 4},
		},
	}

	tempRoot := t.TempDir()
	outDir := t.TempDir()
	opts := RunOptions{
		Options:   Options{Format: FormatFasta, Layout: SplitSpot, Accession: "ACC"},
		Threads:   2,
		TempRoot:  tempRoot,
		OutputDir: outDir,
	}

	res, err := Run(context.Background(), db, opts, time.Unix(0, 1))
	require.NoError(t, err)
	require.Len(t, res.OutputPaths, 1)
	assert.Equal(t, filepath.Join(outDir, "ACC.fasta"), res.OutputPaths[0])

	data, err := ioutil.ReadFile(res.OutputPaths[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "AAAA")
	assert.Contains(t, string(data), "CCCC")
	assert.EqualValues(t, 1, res.Stats.SpotsRead)
	assert.EqualValues(t, 2, res.Stats.ReadsWritten)
}

func TestCoordinatorMixedAlignmentWholeSpotFasta(t *testing.T) {
	db := &seqtable.FakeDatabase{
		Spots: []seqtable.Spot{{
			RowID:              1,
			Name:               "mixed",
			PrimaryAlignmentID: [2]uint64{0, 1},
			CmpRead:            []byte("GGGG"),
			Quality:            make([]byte, 8),
			ReadLen:            []int{4, 4},
			ReadType:           []seqtable.ReadType{seqtable.ReadTypeBiological, seqtable.ReadTypeBiological},
		}},
		Alignments: []seqtable.AlignmentRow{
			{RowID: 1, SpotID: 1, ReadID: 2, RawRead: []byte("TTTT"), ReadLength: 4},
		},
	}

	opts := RunOptions{
		Options:   Options{Format: FormatFasta, Layout: WholeSpot, Accession: "ACC"},
		Threads:   2,
		TempRoot:  t.TempDir(),
		OutputDir: t.TempDir(),
	}

	res, err := Run(context.Background(), db, opts, time.Unix(0, 2))
	require.NoError(t, err)
	require.Len(t, res.OutputPaths, 1)

	data, err := ioutil.ReadFile(res.OutputPaths[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "GGGGTTTT")
}

func TestCoordinatorFastaUnsortedSkipsLookup(t *testing.T) {
	db := &seqtable.FakeDatabase{
		Spots: []seqtable.Spot{{
			RowID:              1,
			Name:               "unsorted",
			PrimaryAlignmentID: [2]uint64{0, 1}, // read 2 "aligned" but must be ignored.
			CmpRead:            []byte("AAAA"),
			Quality:            make([]byte, 4),
			ReadLen:            []int{4},
			ReadType:           []seqtable.ReadType{seqtable.ReadTypeBiological},
		}},
	}

	opts := RunOptions{
		Options:   Options{Format: FormatFasta, Layout: FastaUnsorted, Accession: "ACC"},
		Threads:   2,
		TempRoot:  t.TempDir(),
		OutputDir: t.TempDir(),
	}

	res, err := Run(context.Background(), db, opts, time.Unix(0, 3))
	require.NoError(t, err)
	require.Len(t, res.OutputPaths, 1)

	data, err := ioutil.ReadFile(res.OutputPaths[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "AAAA")
}

func TestCoordinatorSplitFilesProducesTwoNumberedOutputs(t *testing.T) {
	db := &seqtable.FakeDatabase{
		Spots: []seqtable.Spot{{
			RowID:    1,
			Name:     "pair",
			CmpRead:  []byte("AAAACCCC"),
			Quality:  make([]byte, 8),
			ReadLen:  []int{4, 4},
			ReadType: []seqtable.ReadType{seqtable.ReadTypeBiological, seqtable.ReadTypeBiological},
		}},
	}

	opts := RunOptions{
		Options:   Options{Format: FormatFasta, Layout: SplitFiles, Accession: "ACC"},
		Threads:   2,
		TempRoot:  t.TempDir(),
		OutputDir: t.TempDir(),
	}

	res, err := Run(context.Background(), db, opts, time.Unix(0, 4))
	require.NoError(t, err)
	require.Len(t, res.OutputPaths, 2)

	data1, err := ioutil.ReadFile(filepath.Join(opts.OutputDir, "ACC_1.fasta"))
	require.NoError(t, err)
	assert.Contains(t, string(data1), "AAAA")

	data2, err := ioutil.ReadFile(filepath.Join(opts.OutputDir, "ACC_2.fasta"))
	require.NoError(t, err)
	assert.Contains(t, string(data2), "CCCC")
}
