// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package errs contains the failure taxonomy of the report verification. Every
// concrete error is bound to exactly one category, so callers can match on the
// precise failure or on its class with errors.Is.
package errs

import "errors"

var (
	// StructuralMismatch is the class of failures where a recomputed Merkle or
	// trie root disagrees with the committed root it should reproduce.
	StructuralMismatch = errors.New("structural mismatch")

	// IntegrityViolation is the class of failures where caller supplied data
	// breaks a sortedness, uniqueness or counting invariant.
	IntegrityViolation = errors.New("integrity violation")

	// IllegalTransition is the class of failures where a validator status
	// moved backwards between two snapshots.
	IllegalTransition = errors.New("illegal transition")

	// CompletenessViolation is the class of failures where required entries
	// were omitted from a delta.
	CompletenessViolation = errors.New("completeness violation")

	// ExternalProofFailure is the class of failures of the execution layer
	// account proof.
	ExternalProofFailure = errors.New("external proof failure")

	// Conversion is the class of failures of numeric width conversions.
	Conversion = errors.New("conversion error")
)

// kindError is a named failure belonging to a category.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// New creates a named error within the given category. The returned value is
// meant to be stored in a package level sentinel and wrapped with %w.
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Kind returns the category of an error, or nil if it does not belong to any.
func Kind(err error) error {
	for _, kind := range []error{StructuralMismatch, IntegrityViolation, IllegalTransition, CompletenessViolation, ExternalProofFailure, Conversion} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
