package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"hospital-management-backend/config"
)

var (
	ErrPaymentFieldsMissing = errors.New("payment verification fields are missing")
	ErrInvalidSignature     = errors.New("payment signature verification failed")
)

// PaymentVerifier checks payment-gateway signatures. The gateway signs
// "orderID|paymentID" with HMAC-SHA256 using the shared key secret; we
// recompute and compare in constant time. The gateway protocol itself is an
// external fixed service, this is only the boolean gate in front of booking.
type PaymentVerifier struct {
	keySecret string
}

func NewPaymentVerifier(cfg config.PaymentConfig) *PaymentVerifier {
	return &PaymentVerifier{keySecret: cfg.KeySecret}
}

// Verify returns nil only when all fields are present and the signature
// matches the expected HMAC.
func (v *PaymentVerifier) Verify(orderID, paymentID, signature string) error {
	if orderID == "" || paymentID == "" || signature == "" {
		return ErrPaymentFieldsMissing
	}

	mac := hmac.New(sha256.New, []byte(v.keySecret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
