package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"hospital-management-backend/config"
)

func signPayment(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaymentVerifier(t *testing.T) {
	const secret = "test-key-secret"
	verifier := NewPaymentVerifier(config.PaymentConfig{KeySecret: secret})

	validSig := signPayment(secret, "order_123", "pay_456")

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		wantErr   error
	}{
		{"valid signature", "order_123", "pay_456", validSig, nil},
		{"tampered order ID", "order_999", "pay_456", validSig, ErrInvalidSignature},
		{"tampered payment ID", "order_123", "pay_999", validSig, ErrInvalidSignature},
		{"wrong signature", "order_123", "pay_456", "deadbeef", ErrInvalidSignature},
		{"empty order ID", "", "pay_456", validSig, ErrPaymentFieldsMissing},
		{"empty payment ID", "order_123", "", validSig, ErrPaymentFieldsMissing},
		{"empty signature", "order_123", "pay_456", "", ErrPaymentFieldsMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifier.Verify(tt.orderID, tt.paymentID, tt.signature)
			if err != tt.wantErr {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPaymentVerifierSecretMatters(t *testing.T) {
	verifier := NewPaymentVerifier(config.PaymentConfig{KeySecret: "secret-a"})

	sig := signPayment("secret-b", "order_123", "pay_456")
	if err := verifier.Verify("order_123", "pay_456", sig); err != ErrInvalidSignature {
		t.Errorf("Verify() with foreign-key signature error = %v, want ErrInvalidSignature", err)
	}
}
