package mpesa

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeternalx123/agropulseAI/internal/adapter"
	"github.com/codeternalx123/agropulseAI/internal/domain"
	"github.com/codeternalx123/agropulseAI/internal/gateway"
	"github.com/codeternalx123/agropulseAI/internal/mocks"
)

type testClientMocks struct {
	ctrl  *gomock.Controller
	http  *mocks.MockHTTPClient
	clock *mocks.MockClock
}

func setupTestClient(t *testing.T) (gateway.PaymentGateway, *testClientMocks) {
	ctrl := gomock.NewController(t)
	m := &testClientMocks{
		ctrl:  ctrl,
		http:  mocks.NewMockHTTPClient(ctrl),
		clock: mocks.NewMockClock(ctrl),
	}

	cfg := Config{
		BaseURL:            "https://sandbox.safaricom.co.ke",
		ConsumerKey:        "key",
		ConsumerSecret:     "secret",
		ShortCode:          "600999",
		InitiatorName:      "agropulse",
		SecurityCredential: "credential",
		ResultURL:          "https://example.com/result",
		TimeoutURL:         "https://example.com/timeout",
	}

	return NewClient(cfg, m.http, adapter.NewJSON(), m.clock), m
}

func expectToken(t *testing.T, m *testClientMocks) {
	m.http.EXPECT().
		Get(gomock.Any(), "https://sandbox.safaricom.co.ke/oauth/v1/generate?grant_type=client_credentials", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, headers map[string]string, result interface{}) error {
			assert.Contains(t, headers["Authorization"], "Basic ")
			resp := result.(*tokenResponse)
			resp.AccessToken = "token-123"
			resp.ExpiresIn = "3599"
			return nil
		})
}

func TestClient_ReleaseFunds(t *testing.T) {
	client, m := setupTestClient(t)
	now := time.Now()
	m.clock.EXPECT().Now().Return(now).AnyTimes()

	expectToken(t, m)
	m.http.EXPECT().
		Post(gomock.Any(), "https://sandbox.safaricom.co.ke/mpesa/b2c/v1/paymentrequest", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, headers map[string]string, body io.Reader) ([]byte, error) {
			assert.Equal(t, "Bearer token-123", headers["Authorization"])
			raw, err := io.ReadAll(body)
			require.NoError(t, err)
			assert.Contains(t, string(raw), `"OriginatorConversationID":"payout-tx-1"`)
			assert.Contains(t, string(raw), `"Amount":"3920.00"`)
			return []byte(`{"ConversationID":"AG_123","ResponseCode":"0","ResponseDescription":"Accepted"}`), nil
		})

	receipt, err := client.ReleaseFunds(context.Background(), gateway.Payout{
		TransactionID:   "tx-1",
		EscrowAccountID: "ESC-1",
		SellerID:        "254700000001",
		Amount:          3920,
		Method:          domain.PaymentMethodMpesa,
		IdempotencyKey:  gateway.PayoutKey("tx-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "AG_123", receipt.Reference)
	assert.Equal(t, now, receipt.ProcessedAt)
}

func TestClient_ReleaseFunds_Rejected(t *testing.T) {
	client, m := setupTestClient(t)
	m.clock.EXPECT().Now().Return(time.Now()).AnyTimes()

	expectToken(t, m)
	m.http.EXPECT().
		Post(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]byte(`{"ResponseCode":"1","ResponseDescription":"Insufficient balance"}`), nil)

	_, err := client.ReleaseFunds(context.Background(), gateway.Payout{
		TransactionID:  "tx-1",
		SellerID:       "254700000001",
		Amount:         100,
		IdempotencyKey: gateway.PayoutKey("tx-1"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
}

func TestClient_RefundBuyer_TokenCached(t *testing.T) {
	client, m := setupTestClient(t)
	m.clock.EXPECT().Now().Return(time.Now()).AnyTimes()

	// Single token fetch serves both requests
	expectToken(t, m)
	m.http.EXPECT().
		Post(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]byte(`{"ConversationID":"AG_456","ResponseCode":"0"}`), nil).
		Times(2)

	refund := gateway.Refund{
		TransactionID:  "tx-2",
		DisputeID:      "dp-1",
		BuyerID:        "254700000002",
		Amount:         500,
		IdempotencyKey: gateway.RefundKey("dp-1"),
	}

	_, err := client.RefundBuyer(context.Background(), refund)
	require.NoError(t, err)
	_, err = client.RefundBuyer(context.Background(), refund)
	require.NoError(t, err)
}

func TestClient_TokenFailure(t *testing.T) {
	client, m := setupTestClient(t)
	m.clock.EXPECT().Now().Return(time.Now()).AnyTimes()

	m.http.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(assert.AnError)

	_, err := client.ReleaseFunds(context.Background(), gateway.Payout{
		TransactionID:  "tx-3",
		IdempotencyKey: gateway.PayoutKey("tx-3"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
}
