package payment

import "context"

// MockVerifier is a Verifier test double. It reports every transaction as
// paid for the expected amount unless a VerifyFunc override is set.
//
// It also backs the non-production verification bypass: config selects it
// at startup instead of the gateway verifier, so the bypass is a wiring
// decision, never a runtime branch in the real verifier.
type MockVerifier struct {
	VerifyFunc func(ctx context.Context, params VerifyParams) (*VerificationResult, error)
}

// Compile-time check that MockVerifier implements Verifier.
var _ Verifier = (*MockVerifier)(nil)

// NewMockVerifier creates a mock verifier that approves everything.
func NewMockVerifier() *MockVerifier {
	return &MockVerifier{}
}

// Verify returns a verified result echoing the expected values, or defers
// to VerifyFunc when set.
func (m *MockVerifier) Verify(ctx context.Context, params VerifyParams) (*VerificationResult, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, params)
	}
	if params.TransactionID == "" || params.MerchantUID == "" {
		return nil, ErrMissingParams
	}
	return &VerificationResult{
		Verified: true,
		Payment: &Transaction{
			TransactionID: params.TransactionID,
			MerchantUID:   params.MerchantUID,
			Status:        statusPaid,
			Amount:        params.Amount,
			PayMethod:     "card",
		},
	}, nil
}
