// Package repository is the data store boundary: coarse queries live
// here, fine-grained eligibility filtering stays in the engine.
// Implementations are injected; nothing holds an ambient store
// singleton.
package repository

import "errors"

var (
	// ErrNotFound is returned when a record does not exist or is
	// soft-deleted.
	ErrNotFound = errors.New("record not found")

	// ErrCapExhausted is returned when the conditional quote-count
	// increment matched no row: the cap filled between the gate's
	// pre-check and the commit.
	ErrCapExhausted = errors.New("quote cap exhausted")

	// ErrDuplicateQuote is returned when the quote insert hit the
	// partial unique index on active quotes: the viewer's earlier
	// submission landed between the gate's pre-check and the commit.
	ErrDuplicateQuote = errors.New("duplicate active quote")
)
