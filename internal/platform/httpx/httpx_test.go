package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsGenericSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
		title  string
		code   string
	}{
		{fmt.Errorf("bills: create: %w", ErrDuplicate), http.StatusConflict, "Duplicate", "duplicate"},
		{ErrNotFound, http.StatusNotFound, "Not Found", "not_found"},
		{fmt.Errorf("%w: bad date", ErrValidation), http.StatusBadRequest, "Validation Failed", "validation"},
		{errors.New("boom"), http.StatusInternalServerError, "Internal Error", "internal"},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		assert.Equal(t, tc.status, rr.Code, tc.err.Error())

		var body ProblemDetail
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, tc.title, body.Title)
		assert.Equal(t, tc.status, body.Status)
		assert.Equal(t, tc.code, body.Code)
		assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	}
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("pq: password authentication failed"))
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestRespondErrorWithPrefersDomainKinds(t *testing.T) {
	errSoldOut := fmt.Errorf("sold out: %w", ErrConflict)
	kinds := []ProblemKind{{Err: errSoldOut, Status: http.StatusGone, Title: "Sold Out", Code: "sold_out"}}

	rr := httptest.NewRecorder()
	RespondErrorWith(rr, fmt.Errorf("line 2: %w", errSoldOut), kinds)
	assert.Equal(t, http.StatusGone, rr.Code)
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "sold_out", body.Code)

	rr = httptest.NewRecorder()
	RespondErrorWith(rr, ErrConflict, kinds)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestDecodeJSONRejectsTrailingAndOversizedBodies(t *testing.T) {
	var v map[string]any
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}{"b":2}`))
	assert.ErrorIs(t, DecodeJSON(req, &v), ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.ErrorIs(t, DecodeJSON(req, &v), ErrValidation)

	big := `{"a":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	assert.ErrorIs(t, DecodeJSON(req, &v), ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`+"\n"))
	require.NoError(t, DecodeJSON(req, &v))
	assert.Equal(t, float64(1), v["a"])
}

func TestCreatedSetsLocation(t *testing.T) {
	rr := httptest.NewRecorder()
	Created(rr, "/bills/42", map[string]int{"id": 42})
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "/bills/42", rr.Header().Get("Location"))
	assert.JSONEq(t, `{"id":42}`, rr.Body.String())
}

func TestDecodeAndValidate(t *testing.T) {
	type payload struct {
		Name     string `json:"name" validate:"required"`
		Quantity int    `json:"quantity" validate:"gt=0"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"","quantity":0}`))
	var p payload
	err := DecodeAndValidate(req, &p)
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "payload.Name failed required")
	assert.Contains(t, err.Error(), "payload.Quantity failed gt")

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`))
	assert.ErrorIs(t, DecodeAndValidate(req, &p), ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ring","quantity":1}`))
	require.NoError(t, DecodeAndValidate(req, &p))
	assert.Equal(t, "ring", p.Name)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(0, 0, 41)
	assert.Equal(t, Pagination{Page: 1, PerPage: 20, Total: 41, TotalPages: 3}, p)
	assert.Equal(t, 0, p.Offset())
	assert.Equal(t, 40, NewPagination(3, 20, 41).Offset())
	assert.Equal(t, 0, NewPagination(1, 10, 0).TotalPages)
}

func TestPageParams(t *testing.T) {
	page, perPage, err := PageParams(httptest.NewRequest(http.MethodGet, "/bills", nil))
	require.NoError(t, err)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, perPage)

	page, perPage, err = PageParams(httptest.NewRequest(http.MethodGet, "/bills?page=3&per_page=50", nil))
	require.NoError(t, err)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, perPage)

	for _, q := range []string{"page=0", "page=x", "per_page=101", "per_page=0"} {
		_, _, err = PageParams(httptest.NewRequest(http.MethodGet, "/bills?"+q, nil))
		assert.ErrorIs(t, err, ErrValidation, q)
	}
}
