package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"agentesocial/internal/domain/learning"
	"agentesocial/internal/domain/store"
	"agentesocial/internal/service/analysis"
	"agentesocial/internal/service/tools"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{learning.ErrMissingUser, http.StatusBadRequest},
		{fmt.Errorf("%w: 'myspace'", analysis.ErrUnsupportedPlatform), http.StatusNotFound},
		{fmt.Errorf("%w: x", tools.ErrUnknownTool), http.StatusNotFound},
		{fmt.Errorf("%w: error querying content_pieces: timeout", store.ErrUnavailable), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestDecodeBody(t *testing.T) {
	var dst map[string]interface{}

	err := decodeBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")), &dst)
	assert.EqualError(t, err, "request body is empty")

	err = decodeBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{")), &dst)
	assert.Error(t, err)

	err = decodeBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`)), &dst)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, dst["a"])
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?days=14&bad=x", nil)

	n, err := queryInt(r, "days", 30)
	assert.NoError(t, err)
	assert.Equal(t, 14, n)

	n, err = queryInt(r, "missing", 30)
	assert.NoError(t, err)
	assert.Equal(t, 30, n)

	_, err = queryInt(r, "bad", 30)
	assert.EqualError(t, err, "invalid bad: x")
}
