package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biodump/seqdump/dumperror"
	"github.com/biodump/seqdump/join"
)

// resetFlags restores every flag this package reads to its zero value,
// since the flag vars are package-level and tests run in the same
// process (mirroring the pattern flag-heavy CLI tests use to avoid
// cross-test leakage).
func resetFlags(t *testing.T) {
	t.Helper()
	*formatFlag = ""
	*splitSpotFlag = false
	*splitFilesFlag = false
	*split3Flag = false
	*concatenateReadsFlag = false
	*fastaFlag = false
	*fastaUnsortedFlag = false
	*threadsFlag = 2
	*memFlag = 64 << 20
	*bufsizeFlag = 256 << 10
	*curcacheFlag = 256 << 20
	*tempFlag = ""
	*outdirFlag = ""
	*tableFlag = ""
	*seqDeflineFlag = ""
	*qualDeflineFlag = ""
	*skipTechnicalFlag = false
	*includeTechnicalFlag = false
	*minReadLenFlag = 0
	*basesFlag = ""
	*rowidAsNameFlag = false
	*printReadNrFlag = false
	*onlyAlignedFlag = false
	*onlyUnalignedFlag = false
	*forceFlag = false
	*appendFlag = false
	*stdoutFlag = false
	*gzipFlag = false
	*terminateOnInvalidFlag = false
}

func TestResolveFormatDefaultsToFastqWholeSpot(t *testing.T) {
	resetFlags(t)
	format, layout, err := resolveFormat()
	require.NoError(t, err)
	assert.Equal(t, join.FormatFastq, format)
	assert.Equal(t, join.WholeSpot, layout)
}

func TestResolveFormatLegacySplitFiles(t *testing.T) {
	resetFlags(t)
	*splitFilesFlag = true
	*fastaFlag = true
	format, layout, err := resolveFormat()
	require.NoError(t, err)
	assert.Equal(t, join.FormatFasta, format)
	assert.Equal(t, join.SplitFiles, layout)
}

func TestResolveFormatFastaUnsortedForcesFasta(t *testing.T) {
	resetFlags(t)
	*fastaUnsortedFlag = true
	format, layout, err := resolveFormat()
	require.NoError(t, err)
	assert.Equal(t, join.FormatFasta, format)
	assert.Equal(t, join.FastaUnsorted, layout)
}

func TestResolveFormatExplicitStringOverridesLegacyFlags(t *testing.T) {
	resetFlags(t)
	*formatFlag = "fasta-split-3"
	format, layout, err := resolveFormat()
	require.NoError(t, err)
	assert.Equal(t, join.FormatFasta, format)
	assert.Equal(t, join.Split3, layout)
}

func TestResolveFormatRejectsUnrecognizedString(t *testing.T) {
	resetFlags(t)
	*formatFlag = "bogus"
	_, _, err := resolveFormat()
	assert.True(t, dumperror.Is(err, dumperror.Usage))
}

func TestResolveFormatRejectsConflictingLegacySelectors(t *testing.T) {
	resetFlags(t)
	*splitFilesFlag = true
	*split3Flag = true
	_, _, err := resolveFormat()
	assert.True(t, dumperror.Is(err, dumperror.Usage))
}

func TestBuildRunOptionsRejectsConflictingTechnicalFlags(t *testing.T) {
	resetFlags(t)
	*skipTechnicalFlag = true
	*includeTechnicalFlag = true
	_, err := buildRunOptions("SRR1")
	assert.True(t, dumperror.Is(err, dumperror.Usage))
}

func TestBuildRunOptionsRejectsAppendAndForceTogether(t *testing.T) {
	resetFlags(t)
	*appendFlag = true
	*forceFlag = true
	_, err := buildRunOptions("SRR1")
	assert.True(t, dumperror.Is(err, dumperror.Usage))
}

func TestBuildRunOptionsClampsBufSize(t *testing.T) {
	resetFlags(t)
	*bufsizeFlag = join.MaxBufSize + 1024
	opts, err := buildRunOptions("SRR1")
	require.NoError(t, err)
	assert.Equal(t, join.MaxBufSize, opts.Options.BufSize)
}

func TestBuildRunOptionsClearsBothAlignmentFiltersWhenBothSet(t *testing.T) {
	resetFlags(t)
	*onlyAlignedFlag = true
	*onlyUnalignedFlag = true
	opts, err := buildRunOptions("SRR1")
	require.NoError(t, err)
	assert.False(t, opts.Options.OnlyAligned)
	assert.False(t, opts.Options.OnlyUnaligned)
}

func TestBuildRunOptionsAppliesGzipCompressorUnlessStdout(t *testing.T) {
	resetFlags(t)
	*gzipFlag = true
	opts, err := buildRunOptions("SRR1")
	require.NoError(t, err)
	assert.IsType(t, join.GzipCompression{}, opts.Compressor)

	resetFlags(t)
	*gzipFlag = true
	*stdoutFlag = true
	opts, err = buildRunOptions("SRR1")
	require.NoError(t, err)
	assert.Nil(t, opts.Compressor)
}

func TestBuildRunOptionsRejectsNegativeCurCache(t *testing.T) {
	resetFlags(t)
	*curcacheFlag = -1
	_, err := buildRunOptions("SRR1")
	assert.True(t, dumperror.Is(err, dumperror.Usage))
}

func TestExitCodeMapsUsageAndNotFoundToThree(t *testing.T) {
	assert.Equal(t, 3, exitCode(dumperror.New(dumperror.Usage, "op", nil)))
	assert.Equal(t, 3, exitCode(dumperror.New(dumperror.NotFound, "op", nil)))
	assert.Equal(t, 1, exitCode(dumperror.New(dumperror.IoFailure, "op", nil)))
}
