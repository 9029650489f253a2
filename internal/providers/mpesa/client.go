package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/codeternalx123/agropulseAI/internal/adapter"
	"github.com/codeternalx123/agropulseAI/internal/domain"
	"github.com/codeternalx123/agropulseAI/internal/gateway"
)

// tokenExpiryMargin is subtracted from the reported token lifetime so a
// token is never used right at its expiry boundary
const tokenExpiryMargin = 30 * time.Second

// Config holds the Daraja API configuration
type Config struct {
	BaseURL            string
	ConsumerKey        string
	ConsumerSecret     string
	ShortCode          string
	InitiatorName      string
	SecurityCredential string
	ResultURL          string
	TimeoutURL         string
}

type client struct {
	cfg   Config
	http  adapter.HTTPClient
	json  adapter.JSON
	clock adapter.Clock

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a Daraja B2C payment gateway client
func NewClient(cfg Config, httpClient adapter.HTTPClient, jsonAdapter adapter.JSON, clock adapter.Clock) gateway.PaymentGateway {
	return &client{
		cfg:   cfg,
		http:  httpClient,
		json:  jsonAdapter,
		clock: clock,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

type b2cRequest struct {
	OriginatorConversationID string `json:"OriginatorConversationID"`
	InitiatorName            string `json:"InitiatorName"`
	SecurityCredential       string `json:"SecurityCredential"`
	CommandID                string `json:"CommandID"`
	Amount                   string `json:"Amount"`
	PartyA                   string `json:"PartyA"`
	PartyB                   string `json:"PartyB"`
	Remarks                  string `json:"Remarks"`
	QueueTimeOutURL          string `json:"QueueTimeOutURL"`
	ResultURL                string `json:"ResultURL"`
	Occasion                 string `json:"Occasion"`
}

type b2cResponse struct {
	ConversationID           string `json:"ConversationID"`
	OriginatorConversationID string `json:"OriginatorConversationID"`
	ResponseCode             string `json:"ResponseCode"`
	ResponseDescription      string `json:"ResponseDescription"`
}

// token returns a cached OAuth access token, refreshing it when expired
func (c *client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.clock.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	credentials := base64.StdEncoding.EncodeToString(
		[]byte(c.cfg.ConsumerKey + ":" + c.cfg.ConsumerSecret))

	var resp tokenResponse
	url := c.cfg.BaseURL + "/oauth/v1/generate?grant_type=client_credentials"
	if err := c.http.Get(ctx, url, map[string]string{
		"Authorization": "Basic " + credentials,
	}, &resp); err != nil {
		return "", fmt.Errorf("failed to obtain access token: %w: %v", domain.ErrGatewayUnavailable, err)
	}

	ttl := time.Hour
	if resp.ExpiresIn != "" {
		if d, err := time.ParseDuration(resp.ExpiresIn + "s"); err == nil {
			ttl = d
		}
	}

	c.accessToken = resp.AccessToken
	c.tokenExpiry = c.clock.Now().Add(ttl - tokenExpiryMargin)

	return c.accessToken, nil
}

// sendB2C submits a business-to-customer payment request
func (c *client) sendB2C(ctx context.Context, req b2cRequest) (*gateway.Receipt, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	body, err := c.json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal b2c request: %w", err)
	}

	url := c.cfg.BaseURL + "/mpesa/b2c/v1/paymentrequest"
	respBody, err := c.http.Post(ctx, url, map[string]string{
		"Authorization": "Bearer " + token,
		"Content-Type":  "application/json",
	}, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("b2c request failed: %w: %v", domain.ErrGatewayUnavailable, err)
	}

	var resp b2cResponse
	if err := c.json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode b2c response: %w", err)
	}

	if resp.ResponseCode != "0" {
		return nil, fmt.Errorf("b2c rejected (%s): %s: %w",
			resp.ResponseCode, resp.ResponseDescription, domain.ErrGatewayUnavailable)
	}

	return &gateway.Receipt{
		Reference:   resp.ConversationID,
		ProcessedAt: c.clock.Now(),
	}, nil
}

// ReleaseFunds pays the seller from the escrow account
func (c *client) ReleaseFunds(ctx context.Context, payout gateway.Payout) (*gateway.Receipt, error) {
	return c.sendB2C(ctx, b2cRequest{
		OriginatorConversationID: payout.IdempotencyKey,
		InitiatorName:            c.cfg.InitiatorName,
		SecurityCredential:       c.cfg.SecurityCredential,
		CommandID:                "BusinessPayment",
		Amount:                   fmt.Sprintf("%.2f", payout.Amount),
		PartyA:                   c.cfg.ShortCode,
		PartyB:                   payout.SellerID,
		Remarks:                  fmt.Sprintf("escrow payout for transaction %s", payout.TransactionID),
		QueueTimeOutURL:          c.cfg.TimeoutURL,
		ResultURL:                c.cfg.ResultURL,
		Occasion:                 payout.EscrowAccountID,
	})
}

// RefundBuyer returns funds from the escrow account to the buyer
func (c *client) RefundBuyer(ctx context.Context, refund gateway.Refund) (*gateway.Receipt, error) {
	return c.sendB2C(ctx, b2cRequest{
		OriginatorConversationID: refund.IdempotencyKey,
		InitiatorName:            c.cfg.InitiatorName,
		SecurityCredential:       c.cfg.SecurityCredential,
		CommandID:                "BusinessPayment",
		Amount:                   fmt.Sprintf("%.2f", refund.Amount),
		PartyA:                   c.cfg.ShortCode,
		PartyB:                   refund.BuyerID,
		Remarks:                  fmt.Sprintf("escrow refund for dispute %s", refund.DisputeID),
		QueueTimeOutURL:          c.cfg.TimeoutURL,
		ResultURL:                c.cfg.ResultURL,
		Occasion:                 refund.EscrowAccountID,
	})
}
