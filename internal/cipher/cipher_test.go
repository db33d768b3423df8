package cipher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	c, err := New(key)
	require.NoError(t, err)

	plaintext := []byte("super secret imap password")
	ciphertext, err := c.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decrypted, err := c.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestNew_RejectsWrongKeySize(t *testing.T) {
	_, err := New([]byte("too-short"))
	assert.Error(t, err)
}

func TestDecrypt_RejectsTamperedCiphertext(t *testing.T) {
	key := make([]byte, KeySize)
	c, err := New(key)
	require.NoError(t, err)

	ciphertext, err := c.Encrypt([]byte("hello"))
	require.NoError(t, err)
	ciphertext[len(ciphertext)-1] ^= 0xFF

	_, err = c.Decrypt(ciphertext)
	assert.Error(t, err)
}
