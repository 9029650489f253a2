package domain

import "time"

// HarvestHealthProof captures the AI crop-health assessment taken before harvest
type HarvestHealthProof struct {
	HealthScore float64   `json:"health_score"`
	DiseaseRisk *float64  `json:"disease_risk,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	AssessedAt  time.Time `json:"assessed_at"`
}

// StorageConditionProof is a single reading from the post-harvest storage monitor
type StorageConditionProof struct {
	TemperatureCelsius float64   `json:"temperature_celsius"`
	HumidityPercent    float64   `json:"humidity_percent"`
	Location           *string   `json:"location,omitempty"`
	RecordedAt         time.Time `json:"recorded_at"`
}

// PestCertification is an inspection certificate attesting pest-free produce
type PestCertification struct {
	CertificateID string     `json:"certificate_id"`
	Inspector     string     `json:"inspector"`
	Passed        bool       `json:"passed"`
	IssuedAt      time.Time  `json:"issued_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// SoilReport is the soil analysis attached to a listing by the grower
type SoilReport struct {
	PH             float64   `json:"ph"`
	NitrogenPPM    *float64  `json:"nitrogen_ppm,omitempty"`
	PhosphorusPPM  *float64  `json:"phosphorus_ppm,omitempty"`
	PotassiumPPM   *float64  `json:"potassium_ppm,omitempty"`
	OrganicMatter  *float64  `json:"organic_matter,omitempty"`
	SampleTakenAt  time.Time `json:"sample_taken_at"`
	LaboratoryName *string   `json:"laboratory_name,omitempty"`
}

// SpoilageRisk is the model's spoilage projection at a point in time
type SpoilageRisk struct {
	RiskScore   float64   `json:"risk_score"`
	ShelfDays   *int      `json:"shelf_days,omitempty"`
	ComputedAt  time.Time `json:"computed_at"`
	ModelSource *string   `json:"model_source,omitempty"`
}

// VerificationReport is the full AI verification payload attached to an asset.
// Each evidence source is an explicit struct rather than a free-form map so the
// dispute snapshot carries typed, tamper-evident grounds for arbitration.
type VerificationReport struct {
	Score             float64                 `json:"score"`
	GradedAt          time.Time               `json:"graded_at"`
	HarvestHealth     *HarvestHealthProof     `json:"harvest_health,omitempty"`
	StorageConditions []StorageConditionProof `json:"storage_conditions,omitempty"`
	PestCertification *PestCertification      `json:"pest_certification,omitempty"`
	SoilReport        *SoilReport             `json:"soil_report,omitempty"`
	SpoilageRisk      *SpoilageRisk           `json:"spoilage_risk,omitempty"`
}

// EvidenceSnapshot is the immutable copy of verification evidence frozen onto a
// dispute case at opening time. Later edits to the asset cannot alter it.
type EvidenceSnapshot struct {
	VerificationScore       float64                 `json:"verification_score"`
	QualityGrade            QualityGrade            `json:"quality_grade"`
	PreHarvestHealthScore   *float64                `json:"pre_harvest_health_score,omitempty"`
	StorageConditionHistory []StorageConditionProof `json:"storage_condition_history,omitempty"`
	SpoilageRiskAtSale      *SpoilageRisk           `json:"spoilage_risk_at_sale,omitempty"`
	SnapshotAt              time.Time               `json:"snapshot_at"`
}

// SnapshotEvidence freezes the arbitration-relevant parts of a verification report
func SnapshotEvidence(report *VerificationReport, grade QualityGrade, at time.Time) EvidenceSnapshot {
	snapshot := EvidenceSnapshot{
		QualityGrade: grade,
		SnapshotAt:   at,
	}
	if report == nil {
		return snapshot
	}

	snapshot.VerificationScore = report.Score
	if report.HarvestHealth != nil {
		score := report.HarvestHealth.HealthScore
		snapshot.PreHarvestHealthScore = &score
	}
	if len(report.StorageConditions) > 0 {
		snapshot.StorageConditionHistory = make([]StorageConditionProof, len(report.StorageConditions))
		copy(snapshot.StorageConditionHistory, report.StorageConditions)
	}
	if report.SpoilageRisk != nil {
		risk := *report.SpoilageRisk
		snapshot.SpoilageRiskAtSale = &risk
	}

	return snapshot
}
