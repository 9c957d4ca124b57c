package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	key1, err := DeriveKey("secret", "salt-a")
	require.NoError(t, err)
	assert.Len(t, key1, 32)

	key2, err := DeriveKey("secret", "salt-a")
	require.NoError(t, err)
	assert.Equal(t, key1, key2, "derivation must be deterministic")

	rotated, err := DeriveKey("secret", "salt-b")
	require.NoError(t, err)
	assert.NotEqual(t, key1, rotated, "rotating the salt must change the key")

	_, err = DeriveKey("", "salt")
	assert.Error(t, err)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, err := DeriveKey("secret", "salt")
	require.NoError(t, err)

	plaintext := []byte(`{"gid":"g1","stg":2}`)
	sealed, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "g1", "token must be opaque")

	opened, err := Decrypt(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestEncryptProducesDistinctCiphertexts(t *testing.T) {
	key, err := DeriveKey("secret", "salt")
	require.NoError(t, err)

	a, err := Encrypt([]byte("same payload"), key)
	require.NoError(t, err)
	b, err := Encrypt([]byte("same payload"), key)
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "nonce randomness must make ciphertexts differ")
}

func TestDecryptRejectsTamperedInput(t *testing.T) {
	key, err := DeriveKey("secret", "salt")
	require.NoError(t, err)

	sealed, err := Encrypt([]byte("payload"), key)
	require.NoError(t, err)

	// Flip one character of the base64 body.
	tampered := []byte(sealed)
	if tampered[10] == 'A' {
		tampered[10] = 'B'
	} else {
		tampered[10] = 'A'
	}

	_, err = Decrypt(string(tampered), key)
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	key, err := DeriveKey("secret", "salt")
	require.NoError(t, err)

	for _, input := range []string{"", "not-base64!!!", "YWJj"} {
		_, err := Decrypt(input, key)
		assert.ErrorIs(t, err, ErrDecryption, "input %q", input)
	}
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	key, err := DeriveKey("secret", "salt")
	require.NoError(t, err)
	other, err := DeriveKey("secret", "rotated")
	require.NoError(t, err)

	sealed, err := Encrypt([]byte("payload"), key)
	require.NoError(t, err)

	_, err = Decrypt(sealed, other)
	assert.ErrorIs(t, err, ErrDecryption)
}
