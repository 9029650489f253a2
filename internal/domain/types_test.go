package domain_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeternalx123/agropulseAI/internal/domain"
)

func TestGradeForScore(t *testing.T) {
	tests := []struct {
		score float64
		grade domain.QualityGrade
	}{
		{100, domain.GradePremium},
		{90, domain.GradePremium},
		{89.9, domain.GradeStandard},
		{60, domain.GradeStandard},
		{59.9, domain.GradeBasic},
		{0, domain.GradeBasic},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("score_%.1f", tt.score), func(t *testing.T) {
			assert.Equal(t, tt.grade, domain.GradeForScore(tt.score))
		})
	}
}

func TestTransactionStatus_Terminal(t *testing.T) {
	assert.True(t, domain.TransactionStatusCompleted.Terminal())
	assert.True(t, domain.TransactionStatusRefunded.Terminal())
	assert.False(t, domain.TransactionStatusPending.Terminal())
	assert.False(t, domain.TransactionStatusDisputed.Terminal())
	assert.False(t, domain.TransactionStatusInAcceptanceWindow.Terminal())
}

func TestTransactionStatus_Disputable(t *testing.T) {
	assert.True(t, domain.TransactionStatusDeliveryProofSubmitted.Disputable())
	assert.True(t, domain.TransactionStatusInAcceptanceWindow.Disputable())
	assert.False(t, domain.TransactionStatusPending.Disputable())
	assert.False(t, domain.TransactionStatusFundsEscrowed.Disputable())
	assert.False(t, domain.TransactionStatusCompleted.Disputable())
	assert.False(t, domain.TransactionStatusRefunded.Disputable())
}

func TestSnapshotEvidence(t *testing.T) {
	now := time.Now()
	healthScore := 87.5
	report := &domain.VerificationReport{
		Score:    92.0,
		GradedAt: now.Add(-24 * time.Hour),
		HarvestHealth: &domain.HarvestHealthProof{
			HealthScore: healthScore,
			AssessedAt:  now.Add(-48 * time.Hour),
		},
		StorageConditions: []domain.StorageConditionProof{
			{TemperatureCelsius: 4.2, HumidityPercent: 61, RecordedAt: now.Add(-12 * time.Hour)},
			{TemperatureCelsius: 4.8, HumidityPercent: 63, RecordedAt: now.Add(-6 * time.Hour)},
		},
		SpoilageRisk: &domain.SpoilageRisk{RiskScore: 0.12, ComputedAt: now.Add(-time.Hour)},
	}

	snapshot := domain.SnapshotEvidence(report, domain.GradePremium, now)

	assert.Equal(t, 92.0, snapshot.VerificationScore)
	assert.Equal(t, domain.GradePremium, snapshot.QualityGrade)
	require.NotNil(t, snapshot.PreHarvestHealthScore)
	assert.Equal(t, healthScore, *snapshot.PreHarvestHealthScore)
	require.Len(t, snapshot.StorageConditionHistory, 2)
	require.NotNil(t, snapshot.SpoilageRiskAtSale)
	assert.Equal(t, 0.12, snapshot.SpoilageRiskAtSale.RiskScore)
	assert.Equal(t, now, snapshot.SnapshotAt)

	// Snapshot must be an independent copy
	report.StorageConditions[0].TemperatureCelsius = 30
	report.SpoilageRisk.RiskScore = 0.99
	assert.Equal(t, 4.2, snapshot.StorageConditionHistory[0].TemperatureCelsius)
	assert.Equal(t, 0.12, snapshot.SpoilageRiskAtSale.RiskScore)
}

func TestSnapshotEvidence_NilReport(t *testing.T) {
	now := time.Now()
	snapshot := domain.SnapshotEvidence(nil, domain.GradeBasic, now)

	assert.Equal(t, domain.GradeBasic, snapshot.QualityGrade)
	assert.Zero(t, snapshot.VerificationScore)
	assert.Nil(t, snapshot.PreHarvestHealthScore)
	assert.Nil(t, snapshot.SpoilageRiskAtSale)
}
