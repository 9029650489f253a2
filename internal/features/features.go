package features

import (
	"fmt"
	"strings"

	"github.com/codeternalx123/agropulseAI/internal/adapter"
)

// Marketplace feature names
const (
	FeatureSell      = "marketplace_sell"
	FeatureBuy       = "marketplace_buy"
	FeatureArbitrate = "marketplace_arbitrate"
)

// AccessChecker decides whether a user may use a marketplace feature
//
//go:generate mockgen -source=features.go -destination=../mocks/features.go -package=mocks -mock_names=AccessChecker=MockAccessChecker
type AccessChecker interface {
	// Allowed reports whether the user may use the named feature
	Allowed(userID string, feature string) bool
}

// DenylistData represents the structure of the denylist.json file
// Key format: "feature" -> list of blocked user ids
type DenylistData map[string][]string

// denylistChecker blocks users listed in the registry file
type denylistChecker struct {
	data *DenylistData
	// Fast lookup map: "feature:user" -> true
	blocked map[string]bool
}

// LoadDenylist loads the feature denylist from a JSON file
func LoadDenylist(filePath string, fs adapter.FileSystem, jsonAdapter adapter.JSON) (AccessChecker, error) {
	data, err := fs.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read denylist file: %w", err)
	}

	var denylistData DenylistData
	if err := jsonAdapter.Unmarshal(data, &denylistData); err != nil {
		return nil, fmt.Errorf("failed to parse denylist JSON: %w", err)
	}

	// Build lookup map
	dl := &denylistChecker{
		data:    &denylistData,
		blocked: make(map[string]bool),
	}

	for feature, userIDs := range denylistData {
		normalizedFeature := strings.ToLower(feature)

		for _, userID := range userIDs {
			key := fmt.Sprintf("%s:%s", normalizedFeature, strings.ToLower(userID))
			dl.blocked[key] = true
		}
	}

	return dl, nil
}

// Allowed reports whether the user may use the named feature
func (d *denylistChecker) Allowed(userID string, feature string) bool {
	if d == nil {
		return true
	}
	key := fmt.Sprintf("%s:%s", strings.ToLower(feature), strings.ToLower(userID))
	return !d.blocked[key]
}

// allowAll permits every user. Used when no denylist is configured.
type allowAll struct{}

// NewAllowAll creates a checker that permits everything
func NewAllowAll() AccessChecker {
	return &allowAll{}
}

func (allowAll) Allowed(string, string) bool {
	return true
}
