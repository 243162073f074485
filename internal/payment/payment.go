package payment

import (
	"context"
	"errors"
	"time"
)

// Verifier confirms a client-asserted payment against the gateway's
// authoritative record before any durable order state is created.
// Implementations: GatewayVerifier (real) and MockVerifier (non-prod bypass
// and tests). The implementation is selected once at startup from config;
// there is no runtime bypass branch inside the real verifier.
type Verifier interface {
	// Verify fetches the authoritative transaction and cross-checks it.
	// Business mismatches and transport failures both come back as an
	// unverified result with a reason; the error return is reserved for
	// caller misuse (empty parameters).
	Verify(ctx context.Context, params VerifyParams) (*VerificationResult, error)
}

// VerifyParams identifies the transaction to confirm and the amount the
// cart says the customer owes.
type VerifyParams struct {
	// TransactionID is the gateway-issued opaque id (imp_uid).
	TransactionID string

	// MerchantUID is the client-generated order-local reference the
	// customer paid under.
	MerchantUID string

	// Amount is the expected charge in integer currency units.
	Amount int64
}

// Transaction is the gateway's authoritative payment record.
type Transaction struct {
	TransactionID string `json:"transactionId"`
	MerchantUID   string `json:"merchantReference"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	PayMethod     string `json:"payMethod"`
	ApprovalCode  string `json:"approvalCode"`
}

// VerificationResult is the outcome of a verification attempt.
type VerificationResult struct {
	Verified bool

	// Payment is the authoritative record when Verified is true.
	Payment *Transaction

	// Reason explains the failure when Verified is false.
	Reason string
}

var (
	// ErrMissingParams is returned when Verify is called without a
	// transaction id or merchant reference.
	ErrMissingParams = errors.New("payment: transaction id and merchant uid are required")

	// ErrMissingCredentials is returned by the gateway constructor when
	// API credentials are absent.
	ErrMissingCredentials = errors.New("payment: gateway API key and secret are required")

	// ErrMissingBaseURL is returned by the gateway constructor when no
	// gateway origin is configured.
	ErrMissingBaseURL = errors.New("payment: gateway base URL is required")
)

// Config contains configuration for the gateway verifier.
type Config struct {
	// APIKey and APISecret authenticate the token request.
	APIKey    string
	APISecret string

	// BaseURL is the gateway origin, scheme and host only.
	BaseURL string

	// Timeout bounds each outbound call. Zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout is the outbound call timeout when none is configured.
const DefaultTimeout = 10 * time.Second

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" || c.APISecret == "" {
		return ErrMissingCredentials
	}
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	return nil
}
