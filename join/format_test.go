package join

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRenderBasic(t *testing.T) {
	tpl, err := CompileTemplate("@$ac.$si $sn length=$rl")
	require.NoError(t, err)
	got := tpl.Render(nil, Values{
		Accession: "SRR000001",
		SpotName:  "read/1",
		SpotID:    42,
		ReadLen:   101,
	})
	assert.Equal(t, "@SRR000001.42 read/1 length=101", string(got))
}

func TestTemplateRenderSpotNameFallsBackToSpotID(t *testing.T) {
	tpl, err := CompileTemplate("$sn")
	require.NoError(t, err)
	got := tpl.Render(nil, Values{SpotID: 7})
	assert.Equal(t, "7", string(got))
}

func TestTemplateRenderUnknownVarIsLiteral(t *testing.T) {
	tpl, err := CompileTemplate("cost: $5 each")
	require.NoError(t, err)
	got := tpl.Render(nil, Values{})
	assert.Equal(t, "cost: $5 each", string(got))
}

func TestTemplateRenderReadIDAndGroup(t *testing.T) {
	tpl, err := CompileTemplate("$ac.$si.$ri $sg")
	require.NoError(t, err)
	got := tpl.Render(nil, Values{Accession: "SRR1", SpotID: 3, ReadID: 2, SpotGroup: "grpA"})
	assert.Equal(t, "SRR1.3.2 grpA", string(got))
}

func TestTemplateRenderReusesDstBackingArray(t *testing.T) {
	tpl, err := CompileTemplate("$ac")
	require.NoError(t, err)
	buf := make([]byte, 0, 64)
	buf = tpl.Render(buf, Values{Accession: "X"})
	buf = tpl.Render(buf[:0], Values{Accession: "Y"})
	assert.Equal(t, "Y", string(buf))
}

func TestTemplateDollarAtEndOfStringIsLiteral(t *testing.T) {
	tpl, err := CompileTemplate("trailing $")
	require.NoError(t, err)
	got := tpl.Render(nil, Values{})
	assert.Equal(t, "trailing $", string(got))
}
