package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeternalx123/agropulseAI/internal/domain"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind domain.ErrorKind
	}{
		{"asset not found", domain.ErrAssetNotFound, domain.KindNotFound},
		{"transaction not found", domain.ErrTransactionNotFound, domain.KindNotFound},
		{"already escrowed", domain.ErrAlreadyEscrowed, domain.KindStateConflict},
		{"frozen", domain.ErrTransactionFrozen, domain.KindStateConflict},
		{"closed", domain.ErrTransactionClosed, domain.KindStateConflict},
		{"already resolved", domain.ErrDisputeAlreadyResolved, domain.KindStateConflict},
		{"insufficient quantity", domain.ErrInsufficientQuantity, domain.KindCapacity},
		{"asset unavailable", domain.ErrAssetUnavailable, domain.KindCapacity},
		{"not buyer", domain.ErrNotBuyer, domain.KindAuthorization},
		{"not arbitrator", domain.ErrNotAssignedArbitrator, domain.KindAuthorization},
		{"gateway", domain.ErrGatewayUnavailable, domain.KindGateway},
		{"verification too low", domain.ErrVerificationTooLow, domain.KindValidation},
		{"validation", domain.NewValidationError("quantity_kg", "must be positive"), domain.KindValidation},
		{"unknown", errors.New("boom"), domain.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, domain.Kind(tt.err))
		})
	}
}

func TestKind_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("reserving quantity: %w", domain.ErrInsufficientQuantity)
	assert.Equal(t, domain.KindCapacity, domain.Kind(wrapped))

	stateErr := domain.NewStateError(domain.ErrAlreadyEscrowed, string(domain.TransactionStatusFundsEscrowed))
	assert.Equal(t, domain.KindStateConflict, domain.Kind(stateErr))
	assert.True(t, errors.Is(stateErr, domain.ErrAlreadyEscrowed))
}

func TestCurrentState(t *testing.T) {
	stateErr := domain.NewStateError(domain.ErrTransactionFrozen, string(domain.TransactionStatusDisputed))
	assert.Equal(t, "disputed", domain.CurrentState(stateErr))

	wrapped := fmt.Errorf("auto release: %w", stateErr)
	assert.Equal(t, "disputed", domain.CurrentState(wrapped))

	assert.Empty(t, domain.CurrentState(domain.ErrAssetNotFound))
}
