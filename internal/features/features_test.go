package features_test

import (
	"encoding/json"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeternalx123/agropulseAI/internal/features"
	"github.com/codeternalx123/agropulseAI/internal/mocks"
)

func TestLoadDenylist(t *testing.T) {
	tests := []struct {
		name         string
		setupMocks   func(*mocks.MockFileSystem, *mocks.MockJSON)
		expectedErr  string
		validateFunc func(t *testing.T, checker features.AccessChecker)
	}{
		{
			name: "successful load with valid JSON",
			setupMocks: func(mockFS *mocks.MockFileSystem, mockJSON *mocks.MockJSON) {
				mockFS.
					EXPECT().
					ReadFile("denylist.json").
					Return([]byte(`{
					"marketplace_sell": ["farmer-13", "Farmer-99"],
					"marketplace_buy": ["buyer-7"]
				}`), nil)
				mockJSON.
					EXPECT().
					Unmarshal(gomock.Any(), gomock.Any()).
					DoAndReturn(func(data []byte, v interface{}) error {
						return json.Unmarshal(data, v)
					})
			},
			validateFunc: func(t *testing.T, checker features.AccessChecker) {
				assert.False(t, checker.Allowed("farmer-13", features.FeatureSell))
				// Lookup is case-insensitive
				assert.False(t, checker.Allowed("farmer-99", features.FeatureSell))
				assert.False(t, checker.Allowed("buyer-7", features.FeatureBuy))
				assert.True(t, checker.Allowed("farmer-13", features.FeatureBuy))
				assert.True(t, checker.Allowed("buyer-1", features.FeatureBuy))
			},
		},
		{
			name: "successful load with empty denylist",
			setupMocks: func(mockFS *mocks.MockFileSystem, mockJSON *mocks.MockJSON) {
				mockFS.
					EXPECT().
					ReadFile("denylist.json").
					Return([]byte(`{}`), nil)
				mockJSON.
					EXPECT().
					Unmarshal(gomock.Any(), gomock.Any()).
					DoAndReturn(func(data []byte, v interface{}) error {
						return json.Unmarshal(data, v)
					})
			},
			validateFunc: func(t *testing.T, checker features.AccessChecker) {
				assert.True(t, checker.Allowed("farmer-13", features.FeatureSell))
			},
		},
		{
			name: "read failure",
			setupMocks: func(mockFS *mocks.MockFileSystem, mockJSON *mocks.MockJSON) {
				mockFS.
					EXPECT().
					ReadFile("denylist.json").
					Return(nil, assert.AnError)
			},
			expectedErr: "failed to read denylist file",
		},
		{
			name: "invalid JSON",
			setupMocks: func(mockFS *mocks.MockFileSystem, mockJSON *mocks.MockJSON) {
				mockFS.
					EXPECT().
					ReadFile("denylist.json").
					Return([]byte(`not json`), nil)
				mockJSON.
					EXPECT().
					Unmarshal(gomock.Any(), gomock.Any()).
					DoAndReturn(func(data []byte, v interface{}) error {
						return json.Unmarshal(data, v)
					})
			},
			expectedErr: "failed to parse denylist JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockFS := mocks.NewMockFileSystem(ctrl)
			mockJSON := mocks.NewMockJSON(ctrl)
			tt.setupMocks(mockFS, mockJSON)

			checker, err := features.LoadDenylist("denylist.json", mockFS, mockJSON)
			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
				return
			}

			require.NoError(t, err)
			tt.validateFunc(t, checker)
		})
	}
}

func TestAllowAll(t *testing.T) {
	checker := features.NewAllowAll()
	assert.True(t, checker.Allowed("anyone", features.FeatureSell))
	assert.True(t, checker.Allowed("", features.FeatureArbitrate))
}
