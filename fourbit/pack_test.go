package fourbit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func revcomp(s string) string {
	comp := map[byte]byte{'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C', 'N': 'N'}
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c, ok := comp[s[i]]
		if !ok {
			c = 'N'
		}
		out[len(s)-1-i] = c
	}
	return string(out)
}

func TestPackUnpackRoundTrip(t *testing.T) {
	cases := []string{
		"A", "ACGT", "ACGTACGTA", "NNNN", "ACGTN", strings.Repeat("ACGT", 1000),
	}
	for _, s := range cases {
		packed, err := Pack(nil, []byte(s))
		require.NoError(t, err)
		got, err := Unpack(nil, packed, false)
		require.NoError(t, err)
		assert.Equal(t, s, string(got), "forward decode of %q", s)

		got, err = Unpack(nil, packed, true)
		require.NoError(t, err)
		assert.Equal(t, revcomp(s), string(got), "revcomp decode of %q", s)
	}
}

func TestPackUnrecognizedBasesDecodeAsN(t *testing.T) {
	packed, err := Pack(nil, []byte("AxCyGzT"))
	require.NoError(t, err)
	got, err := Unpack(nil, packed, false)
	require.NoError(t, err)
	assert.Equal(t, "ANCNGNT", string(got))
}

func TestPackEmpty(t *testing.T) {
	_, err := Pack(nil, nil)
	assert.Equal(t, ErrEmpty, err)
}

func TestPackTooLong(t *testing.T) {
	_, err := Pack(nil, make([]byte, MaxLen+1))
	assert.Equal(t, ErrTooLong, err)
}

func TestPackBoundaryLengths(t *testing.T) {
	for _, n := range []int{1, 2, 3, MaxLen - 1, MaxLen} {
		bases := make([]byte, n)
		for i := range bases {
			bases[i] = "ACGT"[i%4]
		}
		packed, err := Pack(nil, bases)
		require.NoError(t, err)
		got, err := Unpack(nil, packed, false)
		require.NoError(t, err)
		assert.Equal(t, string(bases), string(got))
	}
}

func TestUnpackTruncated(t *testing.T) {
	packed, err := Pack(nil, []byte("ACGT"))
	require.NoError(t, err)
	_, err = Unpack(nil, packed[:len(packed)-1], false)
	assert.Equal(t, ErrTruncated, err)
}

func TestDstReuse(t *testing.T) {
	dst := make([]byte, 0, 16)
	packed, err := Pack(dst, []byte("ACGT"))
	require.NoError(t, err)
	// Capacity was sufficient, so the backing array should be reused.
	assert.Equal(t, cap(dst), cap(packed))
}
