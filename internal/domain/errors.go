package domain

import "errors"

// Sentinel errors callers match with errors.Is. Services wrap them with
// context via fmt.Errorf and %w; the transport layer maps them to status
// codes.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")

	// ErrRateLimited is returned when payment initiation exceeds the
	// per-subject budget.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidStateTransition is returned when a lifecycle move is not in
	// the transition table for the entity's current status.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrApplicationNotAcceptable is returned when a payment is initiated for
	// an application that is not in the accepted state.
	ErrApplicationNotAcceptable = errors.New("application is not accepted")

	// ErrTransactionNotRefundable is returned when a refund targets a
	// transaction that never completed.
	ErrTransactionNotRefundable = errors.New("transaction is not refundable")
)
