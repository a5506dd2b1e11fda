// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes caps decoded request bodies. A bill with a few hundred lines fits well below it.
const MaxBodyBytes = 1 << 20

// ProblemDetail represents RFC7807 problem details. Code is a stable, machine-readable
// reason clients can switch on without parsing Title.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Code   string `json:"code,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Created sends a JSON body with the Location of the new resource.
func Created(w http.ResponseWriter, location string, data any) {
	w.Header().Set("Location", location)
	JSON(w, http.StatusCreated, data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	writeProblem(w, ProblemDetail{Title: title, Status: status, Detail: detail})
}

func writeProblem(w http.ResponseWriter, p ProblemDetail) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// DecodeJSON decodes a JSON request body into target. Bodies over MaxBodyBytes,
// malformed JSON and trailing data fail with ErrValidation.
func DecodeJSON(r *http.Request, target any) error {
	body := io.LimitReader(r.Body, MaxBodyBytes+1)
	dec := json.NewDecoder(body)
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: malformed body: truncated or empty", ErrValidation)
		}
		return fmt.Errorf("%w: malformed body: %v", ErrValidation, err)
	}
	if dec.InputOffset() > MaxBodyBytes {
		return fmt.Errorf("%w: body exceeds %d bytes", ErrValidation, MaxBodyBytes)
	}
	if dec.More() {
		return fmt.Errorf("%w: malformed body: trailing data", ErrValidation)
	}
	return nil
}
