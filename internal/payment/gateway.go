package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Transaction status the gateway reports for a settled payment.
const statusPaid = "paid"

// GatewayVerifier implements Verifier against the payment gateway's REST API.
type GatewayVerifier struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// Compile-time check that GatewayVerifier implements Verifier.
var _ Verifier = (*GatewayVerifier)(nil)

// NewGatewayVerifier creates a verifier backed by the real payment gateway.
func NewGatewayVerifier(cfg Config, logger *slog.Logger) (*GatewayVerifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &GatewayVerifier{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}, nil
}

// Verify obtains a short-lived access token, fetches the authoritative
// transaction record, and cross-checks status, merchant reference and amount.
// Any failure along the way, transport or business, yields an unverified
// result with a reason; the caller decides how to surface it.
func (v *GatewayVerifier) Verify(ctx context.Context, params VerifyParams) (*VerificationResult, error) {
	if params.TransactionID == "" || params.MerchantUID == "" {
		return nil, ErrMissingParams
	}

	logger := v.logger.With(
		"transaction_id", params.TransactionID,
		"merchant_uid", params.MerchantUID,
	)

	token, err := v.fetchToken(ctx)
	if err != nil {
		logger.Error("gateway token request failed", "error", err)
		return &VerificationResult{Verified: false, Reason: "gateway authentication failed"}, nil
	}

	tx, err := v.fetchTransaction(ctx, token, params.TransactionID)
	if err != nil {
		logger.Error("gateway transaction lookup failed", "error", err)
		return &VerificationResult{Verified: false, Reason: "transaction lookup failed"}, nil
	}

	if tx.Status != statusPaid {
		logger.Warn("transaction not paid", "status", tx.Status)
		return &VerificationResult{Verified: false, Reason: fmt.Sprintf("transaction status is %q, not paid", tx.Status)}, nil
	}
	if tx.MerchantUID != params.MerchantUID {
		logger.Warn("merchant reference mismatch", "gateway_merchant_uid", tx.MerchantUID)
		return &VerificationResult{Verified: false, Reason: "merchant reference does not match"}, nil
	}
	if tx.Amount != params.Amount {
		logger.Warn("amount mismatch", "expected", params.Amount, "actual", tx.Amount)
		return &VerificationResult{Verified: false, Reason: "paid amount does not match order amount"}, nil
	}

	logger.Info("payment verified", "amount", tx.Amount, "pay_method", tx.PayMethod)
	return &VerificationResult{Verified: true, Payment: tx}, nil
}

// fetchToken exchanges the API credentials for a short-lived access token.
func (v *GatewayVerifier) fetchToken(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{
		"key":    v.cfg.APIKey,
		"secret": v.cfg.APISecret,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.BaseURL+"/auth-token", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"accessToken"`
	}
	if err := decodeBody(resp.Body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token response missing access token")
	}

	return payload.AccessToken, nil
}

// fetchTransaction retrieves the authoritative record for a transaction id.
func (v *GatewayVerifier) fetchTransaction(ctx context.Context, token, transactionID string) (*Transaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.BaseURL+"/transactions/"+transactionID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transaction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transaction request returned %d", resp.StatusCode)
	}

	var tx Transaction
	if err := decodeBody(resp.Body, &tx); err != nil {
		return nil, fmt.Errorf("failed to decode transaction response: %w", err)
	}
	if tx.TransactionID == "" {
		tx.TransactionID = transactionID
	}

	return &tx, nil
}

// maxResponseBytes bounds gateway response bodies.
const maxResponseBytes = 1 << 20

func decodeBody(r io.Reader, v any) error {
	return json.NewDecoder(io.LimitReader(r, maxResponseBytes)).Decode(v)
}
