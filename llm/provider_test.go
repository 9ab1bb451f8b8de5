package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWantsFallback(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"model not found", &Error{Code: ErrModelNotFound, HTTPStatus: 404}, true},
		{"model overloaded", &Error{Code: ErrModelOverloaded, HTTPStatus: 529}, true},
		{"quota exceeded", &Error{Code: ErrQuotaExceeded, HTTPStatus: 429}, true},
		{"bare 503", &Error{Code: ErrUpstreamError, HTTPStatus: 503}, true},
		{"rate limited", &Error{Code: ErrRateLimited, HTTPStatus: 429}, false},
		{"unauthorized", &Error{Code: ErrUnauthorized, HTTPStatus: 401}, false},
		{"upstream 500", &Error{Code: ErrUpstreamError, HTTPStatus: 500}, false},
		{"timeout", &Error{Code: ErrUpstreamTimeout, HTTPStatus: 504}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, WantsFallback(tc.err))
		})
	}
}

func TestWantsFallback_WrappedError(t *testing.T) {
	t.Parallel()
	inner := &Error{Code: ErrModelOverloaded, HTTPStatus: 503}
	wrapped := fmt.Errorf("calling backend: %w", inner)
	assert.True(t, WantsFallback(wrapped))
}

func TestError_Message(t *testing.T) {
	t.Parallel()
	err := &Error{Code: ErrRateLimited, Message: "slow down", HTTPStatus: 429, Provider: "openai"}
	assert.Equal(t, "slow down", err.Error())
}
