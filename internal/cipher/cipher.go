// Package cipher provides the one reversible symmetric primitive the
// rest of the service relies on to keep account credentials at rest as
// ciphertext only. Key rotation is out of scope: swapping the process
// ENCRYPTION_KEY makes existing ciphertexts unreadable, which is the
// documented operator contract.
package cipher

import (
	stdcipher "crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required length, in bytes, of ENCRYPTION_KEY.
const KeySize = chacha20poly1305.KeySize // 32

// Cipher encrypts/decrypts account credentials with a process-wide key.
type Cipher struct {
	aead stdcipher.AEAD
}

// New builds a Cipher from a 32-byte key. A key of any other length is a
// fatal boot-time error.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("cipher: key must be %d bytes, got %d", KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext, prepending a fresh random nonce to the
// returned ciphertext.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("cipher: generating nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens ciphertext previously produced by Encrypt. A corrupt or
// truncated ciphertext (wrong key, bit rot, manual tampering) is a Fatal
// error at the call site's discretion — this function only reports it.
func (c *Cipher) Decrypt(ciphertext []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("cipher: ciphertext too short")
	}
	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("cipher: decrypt failed: %w", err)
	}
	return plaintext, nil
}
