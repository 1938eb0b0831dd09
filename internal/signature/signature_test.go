package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyEmail(t *testing.T) {
	t.Parallel()

	body := []byte(`{"hello":"world"}`)
	secret := "topsecret"
	valid := sign(secret, body)

	assert.True(t, VerifyEmail(secret, valid, body))
	assert.False(t, VerifyEmail(secret, "deadbeef", body))
	assert.False(t, VerifyEmail(secret, valid, []byte("tampered")))
	assert.True(t, VerifyEmail("", "anything", body), "empty secret disables verification")
}

func TestVerifyChat(t *testing.T) {
	t.Parallel()

	body := []byte(`{"entry":[]}`)
	secret := "chatsecret"
	valid := "sha256=" + sign(secret, body)

	assert.True(t, VerifyChat(secret, valid, body))
	assert.False(t, VerifyChat(secret, sign(secret, body), body), "missing sha256= prefix")
	assert.False(t, VerifyChat(secret, "sha256=deadbeef", body))
	assert.True(t, VerifyChat("", "whatever", body), "empty secret disables verification")
}
