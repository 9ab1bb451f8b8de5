package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordEstimateCounter(t *testing.T) {
	t.Parallel()
	c := WordEstimateCounter{}

	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 1, c.Count("word"))                    // 1 * 1.3 -> 1
	assert.Equal(t, 13, c.Count(repeatWords(10)))          // 10 * 1.3 -> 13
	assert.Equal(t, 6, c.Count("one two three four five")) // 5 * 1.3 -> 6
}

func TestWordEstimateCounter_WhitespaceHandling(t *testing.T) {
	t.Parallel()
	c := WordEstimateCounter{}
	assert.Equal(t, c.Count("a b c"), c.Count("  a\n\tb   c  "))
}

func TestTiktokenCounter(t *testing.T) {
	t.Parallel()
	c, err := NewTiktokenCounter("")
	if err != nil {
		// The BPE vocabulary downloads on first use; offline runs skip.
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}
	require.NotNil(t, c)

	n := c.Count("The quick brown fox jumps over the lazy dog.")
	assert.Greater(t, n, 0)

	assert.Equal(t, 0, c.Count(""))
}

func TestTiktokenCounter_UnknownEncoding(t *testing.T) {
	t.Parallel()
	_, err := NewTiktokenCounter("no-such-encoding")
	assert.Error(t, err)
}

func repeatWords(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += "word "
	}
	return out
}
