package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/osse101/calsync/internal/domain"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// ErrCiphertextTooShort is returned when a stored value is shorter than a nonce.
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Cipher encrypts credential values with AES-256-GCM.
// Output layout is nonce || ciphertext; every call uses a fresh random nonce.
type Cipher struct {
	key []byte
}

// NewCipher creates a Cipher from a 64-character hex key.
// An empty key yields a Cipher that refuses to encrypt or decrypt.
func NewCipher(hexKey string) (*Cipher, error) {
	if hexKey == "" {
		return &Cipher{}, nil
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: must be hex-encoded: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid encryption key: must be 256 bits (32 bytes), got %d bytes", len(key))
	}
	return &Cipher{key: key}, nil
}

// IsConfigured returns true if an encryption key has been set.
func (c *Cipher) IsConfigured() bool {
	return len(c.key) == KeySize
}

func (c *Cipher) aead() (cipher.AEAD, error) {
	if !c.IsConfigured() {
		return nil, domain.ErrEncryptionNotConfigured
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Encrypt seals plaintext. The empty string maps to nil so absent tokens stay absent.
func (c *Cipher) Encrypt(plaintext string) ([]byte, error) {
	if plaintext == "" {
		return nil, nil
	}
	gcm, err := c.aead()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Decrypt opens a value produced by Encrypt.
func (c *Cipher) Decrypt(ciphertext []byte) (string, error) {
	if len(ciphertext) == 0 {
		return "", nil
	}
	gcm, err := c.aead()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", ErrCiphertextTooShort
	}

	nonce, data := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, data, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plaintext), nil
}
