package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Signer derives and checks the per-channel token the provider echoes back
// on every notification.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer. With an empty secret the token is the user id,
// which only proves the sender knew whose channel it was.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the token for a user's channel
func (s *Signer) Sign(userID, channelID string) string {
	if len(s.secret) == 0 {
		return userID
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(userID))
	mac.Write([]byte{0})
	mac.Write([]byte(channelID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares token against the expected one in constant time
func (s *Signer) Verify(userID, channelID, token string) bool {
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.Sign(userID, channelID)), []byte(token)) == 1
}
