package join

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeClearsBothAlignmentFiltersWhenBothSet(t *testing.T) {
	o := Options{OnlyAligned: true, OnlyUnaligned: true}
	o.Normalize()
	assert.False(t, o.OnlyAligned)
	assert.False(t, o.OnlyUnaligned)
}

func TestNormalizeLeavesSingleFilterAlone(t *testing.T) {
	o := Options{OnlyAligned: true}
	o.Normalize()
	assert.True(t, o.OnlyAligned)
	assert.False(t, o.OnlyUnaligned)
}

func TestNormalizeClampsOversizedBufSize(t *testing.T) {
	o := Options{BufSize: MaxBufSize + 1}
	o.Normalize()
	assert.Equal(t, MaxBufSize, o.BufSize)
}

func TestCompileTemplatesDefaultsForWholeSpot(t *testing.T) {
	ct, err := CompileTemplates(Options{Layout: WholeSpot})
	require.NoError(t, err)
	got := ct.Seq.Render(nil, Values{Accession: "SRR1", SpotID: 5, ReadLen: 10})
	assert.Equal(t, "@SRR1.5 5 length=10", string(got))
}

func TestCompileTemplatesDefaultsIncludeReadNrForSplitLayouts(t *testing.T) {
	ct, err := CompileTemplates(Options{Layout: SplitFiles})
	require.NoError(t, err)
	got := ct.Seq.Render(nil, Values{Accession: "SRR1", SpotID: 5, ReadID: 2, ReadLen: 10})
	assert.Equal(t, "@SRR1.5.2 5 length=10", string(got))
}

func TestCompileTemplatesPrintReadNrForcesReadNrOnWholeSpot(t *testing.T) {
	ct, err := CompileTemplates(Options{Layout: WholeSpot, PrintReadNr: true})
	require.NoError(t, err)
	got := ct.Seq.Render(nil, Values{Accession: "SRR1", SpotID: 5, ReadID: 1, ReadLen: 10})
	assert.Equal(t, "@SRR1.5.1 5 length=10", string(got))
}

func TestCompileTemplatesFastaUsesGreaterThanMarker(t *testing.T) {
	ct, err := CompileTemplates(Options{Format: FormatFasta, Layout: WholeSpot})
	require.NoError(t, err)
	got := ct.Seq.Render(nil, Values{Accession: "SRR1", SpotID: 5, ReadLen: 10})
	assert.Equal(t, ">SRR1.5", string(got))
}

func TestCompileTemplatesFastaSplitSpotOmitsNameAndLength(t *testing.T) {
	ct, err := CompileTemplates(Options{Format: FormatFasta, Layout: SplitSpot})
	require.NoError(t, err)
	got := ct.Seq.Render(nil, Values{Accession: "ACC", SpotID: 1, ReadID: 1})
	assert.Equal(t, ">ACC.1.1", string(got))
}

func TestCompileTemplatesHonorsExplicitOverride(t *testing.T) {
	ct, err := CompileTemplates(Options{Layout: WholeSpot, SeqDefline: "$ac only"})
	require.NoError(t, err)
	got := ct.Seq.Render(nil, Values{Accession: "SRR9"})
	assert.Equal(t, "SRR9 only", string(got))
}
