package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

const SignatureHeader = "X-Hub-Signature-256"

var (
	ErrSignatureFormat   = errors.New("invalid signature format: missing sha256= prefix")
	ErrSignatureMismatch = errors.New("signature verification failed")
)

// VerifySignature checks a Meta webhook signature of the form sha256=<hex>.
func VerifySignature(signature string, payload []byte, appSecret string) error {
	hexSig, ok := strings.CutPrefix(signature, "sha256=")
	if !ok {
		return ErrSignatureFormat
	}
	if !hmac.Equal([]byte(hexSig), []byte(Sign(payload, appSecret))) {
		return ErrSignatureMismatch
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of payload, without the sha256= prefix.
func Sign(payload []byte, appSecret string) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
