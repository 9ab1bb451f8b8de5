// Package tokenizer provides token counting for usage normalization when a
// backend response carries no usage metadata.
package tokenizer

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts tokens in a text string.
type Counter interface {
	Count(text string) int
}

// WordEstimateCounter approximates tokens as word count × 1.3, a deliberately
// conservative rule of thumb for English prose. It is the default estimator
// for backends that omit usage metadata.
type WordEstimateCounter struct{}

func (WordEstimateCounter) Count(text string) int {
	return int(float64(len(strings.Fields(text))) * 1.3)
}

// TiktokenCounter counts with a real BPE encoding via tiktoken-go. Use it
// when the backend's tokenizer family is known; otherwise the word estimate
// is good enough for cost accounting.
type TiktokenCounter struct {
	enc      *tiktoken.Tiktoken
	fallback WordEstimateCounter
}

// NewTiktokenCounter loads the named encoding (cl100k_base when empty).
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{enc: enc}, nil
}

func (c *TiktokenCounter) Count(text string) int {
	if c.enc == nil {
		return c.fallback.Count(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}
