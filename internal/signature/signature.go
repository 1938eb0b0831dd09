// Package signature verifies inbound webhook signatures, per spec.md §6:
// HMAC-SHA256 over the raw request body using a channel-specific secret.
// An empty configured secret disables verification (documented dev
// behavior), grounded on hookdeck-outpost's destwebhook/signature.go.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifyEmail checks the X-Webhook-Signature header against an HMAC-SHA256
// of body using secret. An empty secret skips verification and returns true.
func VerifyEmail(secret, header string, body []byte) bool {
	if secret == "" {
		return true
	}
	return hmac.Equal([]byte(header), []byte(expectedHex(secret, body)))
}

// VerifyChat checks the X-Hub-Signature-256 header (format "sha256=<hex>")
// against an HMAC-SHA256 of body using secret. An empty secret skips
// verification and returns true.
func VerifyChat(secret, header string, body []byte) bool {
	if secret == "" {
		return true
	}
	const prefix = "sha256="
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	return hmac.Equal([]byte(strings.TrimPrefix(header, prefix)), []byte(expectedHex(secret, body)))
}

func expectedHex(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
