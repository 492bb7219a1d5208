package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("walletAddress required"), http.StatusBadRequest},
		{"not found", NotFound("reward not found"), http.StatusNotFound},
		{"upstream", Upstream("quote failed", errors.New("timeout")), http.StatusBadGateway},
		{"persistence", Persistence("save user", errors.New("disk full")), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("claim: %w", NotFound("reward not found")), http.StatusNotFound},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestPredicatesAndUnwrap(t *testing.T) {
	root := errors.New("connection refused")
	err := fmt.Errorf("place order: %w", Upstream("gateway unavailable", root))

	assert.True(t, IsUpstream(err))
	assert.False(t, IsValidation(err))
	assert.ErrorIs(t, err, root)

	var appErr *AppError
	if assert.ErrorAs(t, err, &appErr) {
		assert.Equal(t, "connection refused", appErr.Cause())
		assert.Contains(t, appErr.Error(), CodeUpstream)
	}
	assert.Equal(t, "", Validation("x").Cause())
}
