package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAssetNotFound is returned when an asset is not found
	ErrAssetNotFound = errors.New("asset not found")

	// ErrTransactionNotFound is returned when a transaction is not found
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrDisputeNotFound is returned when a dispute is not found
	ErrDisputeNotFound = errors.New("dispute not found")

	// ErrVerificationTooLow is returned when an asset's verification score is below the listing minimum
	ErrVerificationTooLow = errors.New("verification score below listing minimum")

	// ErrAssetUnavailable is returned when the asset is not in a purchasable state
	ErrAssetUnavailable = errors.New("asset unavailable")

	// ErrInsufficientQuantity is returned when a reservation exceeds the available quantity
	ErrInsufficientQuantity = errors.New("insufficient available quantity")

	// ErrAlreadyEscrowed is returned when funds are locked twice on one transaction
	ErrAlreadyEscrowed = errors.New("funds already escrowed")

	// ErrInvalidTransition is returned when an operation is attempted from an illegal state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrTransactionFrozen is returned when releasing a transaction with an open dispute
	ErrTransactionFrozen = errors.New("transaction frozen by open dispute")

	// ErrTransactionClosed is returned when disputing a Completed or Refunded transaction
	ErrTransactionClosed = errors.New("transaction already closed")

	// ErrWindowNotExpired is returned when auto-release runs before the acceptance window ends
	ErrWindowNotExpired = errors.New("acceptance window not expired")

	// ErrDisputeAlreadyOpen is returned when a transaction already has an open dispute
	ErrDisputeAlreadyOpen = errors.New("dispute already open for transaction")

	// ErrDisputeNotAllowed is returned when disputing before delivery proof exists
	ErrDisputeNotAllowed = errors.New("dispute not allowed in current transaction state")

	// ErrDisputeAlreadyResolved is returned when resolving a resolved dispute
	ErrDisputeAlreadyResolved = errors.New("dispute already resolved")

	// ErrNotBuyer is returned when someone other than the buyer accepts a delivery
	ErrNotBuyer = errors.New("caller is not the transaction buyer")

	// ErrNotAssignedArbitrator is returned when the resolver is not the assigned arbitrator
	ErrNotAssignedArbitrator = errors.New("caller is not the assigned arbitrator")

	// ErrNoArbitratorAssigned is returned when resolving a dispute with no arbitrator
	ErrNoArbitratorAssigned = errors.New("no arbitrator assigned")

	// ErrFeatureNotAllowed is returned when the user's plan does not include the feature
	ErrFeatureNotAllowed = errors.New("feature not available on current plan")

	// ErrGatewayUnavailable is returned when the payment provider fails; the operation is retryable
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// ErrorKind classifies domain errors for transport-level mapping
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindNotFound
	KindStateConflict
	KindCapacity
	KindAuthorization
	KindGateway
)

// ValidationError wraps a bad-input failure with the offending field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a validation error for a named field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// StateError wraps a state-conflict or capacity sentinel together with the
// current record state, so clients can reconcile without a second read.
type StateError struct {
	Err          error
	CurrentState string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s (current state: %s)", e.Err.Error(), e.CurrentState)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// NewStateError wraps a sentinel with the record's current state
func NewStateError(err error, currentState string) *StateError {
	return &StateError{Err: err, CurrentState: currentState}
}

// Kind classifies an error into its transport-facing kind
func Kind(err error) ErrorKind {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return KindValidation
	}

	switch {
	case errors.Is(err, ErrAssetNotFound),
		errors.Is(err, ErrTransactionNotFound),
		errors.Is(err, ErrDisputeNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyEscrowed),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrTransactionFrozen),
		errors.Is(err, ErrTransactionClosed),
		errors.Is(err, ErrWindowNotExpired),
		errors.Is(err, ErrDisputeAlreadyOpen),
		errors.Is(err, ErrDisputeNotAllowed),
		errors.Is(err, ErrDisputeAlreadyResolved),
		errors.Is(err, ErrNoArbitratorAssigned):
		return KindStateConflict
	case errors.Is(err, ErrAssetUnavailable),
		errors.Is(err, ErrInsufficientQuantity):
		return KindCapacity
	case errors.Is(err, ErrNotBuyer),
		errors.Is(err, ErrNotAssignedArbitrator),
		errors.Is(err, ErrFeatureNotAllowed):
		return KindAuthorization
	case errors.Is(err, ErrVerificationTooLow):
		return KindValidation
	case errors.Is(err, ErrGatewayUnavailable):
		return KindGateway
	}

	return KindUnknown
}

// CurrentState extracts the record state attached to a StateError, if any
func CurrentState(err error) string {
	var stateErr *StateError
	if errors.As(err, &stateErr) {
		return stateErr.CurrentState
	}
	return ""
}
