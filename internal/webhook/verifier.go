// Package webhook authenticates payment provider deliveries and hands verified
// payloads to the reconciliation transport.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// SignatureHeader carries the lowercase hex HMAC-SHA256 of the raw body.
const SignatureHeader = "x-razorpay-signature"

var (
	ErrSecretMissing    = errors.New("webhook secret not configured")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Sign returns the lowercase hex HMAC-SHA256 of body under secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body under secret. The digest is
// computed over the exact bytes received and compared in constant time.
func Verify(body []byte, secret, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(body, secret)), []byte(signature))
}

type Verifier struct {
	secret string
}

func NewVerifier(secret string) Verifier {
	return Verifier{secret: secret}
}

// Check distinguishes a server misconfiguration from a bad delivery.
func (v Verifier) Check(body []byte, signature string) error {
	if v.secret == "" {
		return ErrSecretMissing
	}
	if !Verify(body, v.secret, signature) {
		return ErrInvalidSignature
	}
	return nil
}
