// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

// ProblemKind maps a domain sentinel to a problem response.
type ProblemKind struct {
	Err    error
	Status int
	Title  string
	Code   string
}

var genericKinds = []ProblemKind{
	{ErrNotFound, http.StatusNotFound, "Not Found", "not_found"},
	{ErrDuplicate, http.StatusConflict, "Duplicate", "duplicate"},
	{ErrConflict, http.StatusConflict, "Conflict", "conflict"},
	{ErrValidation, http.StatusBadRequest, "Validation Failed", "validation"},
}

// RespondError maps the generic sentinels to RFC7807 responses. Unknown errors
// become a 500 without detail; callers log the cause.
func RespondError(w http.ResponseWriter, err error) {
	RespondErrorWith(w, err, nil)
}

// RespondErrorWith checks kinds in order before the generic sentinels, so a domain
// error that also wraps a generic one gets its own title.
func RespondErrorWith(w http.ResponseWriter, err error, kinds []ProblemKind) {
	for _, set := range [][]ProblemKind{kinds, genericKinds} {
		for _, k := range set {
			if errors.Is(err, k.Err) {
				writeProblem(w, ProblemDetail{Title: k.Title, Status: k.Status, Detail: err.Error(), Code: k.Code})
				return
			}
		}
	}
	writeProblem(w, ProblemDetail{Title: "Internal Error", Status: http.StatusInternalServerError, Code: "internal"})
}
