package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSigner_WithSecret(t *testing.T) {
	s := NewSigner("s3cret")

	token := s.Sign("user-1", "chan-1")

	assert.Len(t, token, 64)
	assert.NotContains(t, token, "user-1")
	assert.True(t, s.Verify("user-1", "chan-1", token))
	assert.False(t, s.Verify("user-1", "chan-2", token), "token is bound to the channel")
	assert.False(t, s.Verify("user-2", "chan-1", token), "token is bound to the user")
	assert.False(t, NewSigner("other").Verify("user-1", "chan-1", token))
	assert.False(t, s.Verify("user-1", "chan-1", ""))
}

func TestSigner_WithoutSecret(t *testing.T) {
	s := NewSigner("")

	assert.Equal(t, "user-1", s.Sign("user-1", "chan-1"))
	assert.True(t, s.Verify("user-1", "chan-1", "user-1"))
	assert.False(t, s.Verify("user-1", "chan-1", "user-2"))
}
