package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestLexicalExtractor_Extract(t *testing.T) {
	t.Parallel()
	e := NewLexicalExtractor()

	t.Run("detects key phrases as joined tokens", func(t *testing.T) {
		t.Parallel()
		themes := e.Extract("You must grab attention in the first 3 seconds.")
		assert.True(t, themes.Has("grab_attention"))
		assert.True(t, themes.Has("first_seconds"))
	})

	t.Run("drops stopwords and short tokens", func(t *testing.T) {
		t.Parallel()
		themes := e.Extract("the and or it is to be")
		assert.Empty(t, themes)
	})

	t.Run("drops pure numbers", func(t *testing.T) {
		t.Parallel()
		themes := e.Extract("increase by 12345 percent")
		assert.False(t, themes.Has("12345"))
		assert.True(t, themes.Has("increase"))
		assert.True(t, themes.Has("percent"))
	})

	t.Run("keeps content words of length three or more", func(t *testing.T) {
		t.Parallel()
		themes := e.Extract("humor works")
		assert.True(t, themes.Has("humor"))
		assert.True(t, themes.Has("work")) // plural stripped
	})
}

func TestLexicalExtractor_Normalize(t *testing.T) {
	t.Parallel()
	e := NewLexicalExtractor()

	cases := map[string]string{
		"first_3":           "first_seconds",
		"first_3_seconds":   "first_seconds",
		"1-2_seconds":       "first_seconds",
		"grab_attention":    "grab_attention",
		"grabs_attention":   "grab_attention",
		"capture_attention": "grab_attention",
		"stop_scroll":       "stop_scroll",
		"stops_scrolling":   "stop_scroll",
		"spark_curiosity":   "spark_curiosity",
		"sparks_curiosity":  "spark_curiosity",
		"curiosity_gap":     "curiosity_gap",
		"information_gap":   "curiosity_gap",
		"keep_watching":     "keep_watching",
		"keeps_watching":    "keep_watching",
		"emotional":         "emotion",
		"emotions":          "emotion",
		"evokes":            "evoke",
		"evoking":           "evoke",
		"hooks":             "hook",
		"watching":          "watch",
		"ratings":           "rat", // double strip runs to the stem
		"sing":              "sing",
		"miss":              "miss",
	}
	for in, want := range cases {
		assert.Equal(t, want, e.Normalize(in), "normalize(%q)", in)
	}
}

// Re-normalizing any already-normalized theme must be a no-op; the scorer
// relies on canonical tokens being stable.
func TestLexicalExtractor_NormalizeIdempotent(t *testing.T) {
	t.Parallel()
	e := NewLexicalExtractor()

	rapid.Check(t, func(t *rapid.T) {
		s := rapid.StringMatching(`[a-z0-9_-]{0,24}`).Draw(t, "theme")
		once := e.Normalize(s)
		twice := e.Normalize(once)
		if once != twice {
			t.Fatalf("normalize not idempotent: %q -> %q -> %q", s, once, twice)
		}
	})
}

func TestLexicalExtractor_NormalizeIdempotentOnExtractedThemes(t *testing.T) {
	t.Parallel()
	e := NewLexicalExtractor()

	themes := e.Extract("Grab attention in the first 3 seconds by sparking curiosity and evoking emotions to keep viewers watching.")
	require.NotEmpty(t, themes)
	for theme := range themes {
		assert.Equal(t, theme, e.Normalize(theme), "extracted theme %q must already be canonical", theme)
	}
}
