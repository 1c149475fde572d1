package crypto

import (
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

func TestNewEncryptor(t *testing.T) {
	tests := []struct {
		name       string
		passphrase string
		wantNil    bool
	}{
		{
			name:       "valid passphrase",
			passphrase: "strong-passphrase-123",
			wantNil:    false,
		},
		{
			name:       "empty passphrase returns nil",
			passphrase: "",
			wantNil:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := NewEncryptor(tt.passphrase)
			if tt.wantNil {
				assert.Nil(t, enc)
			} else {
				assert.NotNil(t, enc)
			}
		})
	}
}

func TestEncryptDecrypt(t *testing.T) {
	enc := NewEncryptor("test-passphrase")

	tests := []struct {
		name      string
		plaintext string
	}{
		{name: "snapshot JSON", plaintext: `{"races":[{"race":"Frosty 5K","date":"12/12","release_date":"June","notes":""}]}`},
		{name: "empty", plaintext: ""},
		{name: "unicode", plaintext: "Grete's Gallop 10K 🏃 · Women's Half"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := enc.Encrypt([]byte(tt.plaintext))
			require.NoError(t, err)
			assert.True(t, IsSealed(sealed))
			if tt.plaintext != "" {
				assert.NotContains(t, sealed, tt.plaintext)
			}

			opened, err := enc.Decrypt(sealed)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, string(opened))
		})
	}
}

func TestEncryptDecrypt_NilEncryptor(t *testing.T) {
	var enc *Encryptor

	sealed, err := enc.Encrypt([]byte(`{"races":[]}`))
	require.NoError(t, err)
	assert.Equal(t, `{"races":[]}`, sealed)

	opened, err := enc.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, `{"races":[]}`, string(opened))
}

func TestDecrypt_PlainContentPassesThrough(t *testing.T) {
	enc := NewEncryptor("test-passphrase")

	opened, err := enc.Decrypt(`{"races":[],"scraped_at":"2025-10-12T14:03:01.123456"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"races":[],"scraped_at":"2025-10-12T14:03:01.123456"}`, string(opened))
}

func TestDecrypt_Failures(t *testing.T) {
	enc := NewEncryptor("right-key")
	sealed, err := enc.Encrypt([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		enc     *Encryptor
		content string
	}{
		{name: "wrong key", enc: NewEncryptor("wrong-key"), content: sealed},
		{name: "no key configured", enc: nil, content: sealed},
		{name: "invalid base64", enc: enc, content: Prefix + "!!!not-base64!!!"},
		{name: "too short", enc: enc, content: Prefix + "AAAA"},
		{name: "tampered", enc: enc, content: sealed[:len(sealed)-4] + "AAAA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.enc.Decrypt(tt.content)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecrypt))
		})
	}
}

func TestEncryption_ConsistentKeyDerivation(t *testing.T) {
	passphrase := "consistent-key"
	salt := sha256.Sum256([]byte(passphrase + "nyrr-watch-salt"))
	want := pbkdf2.Key([]byte(passphrase), salt[:], iterations, keySize, sha256.New)

	assert.Equal(t, want, NewEncryptor(passphrase).key)

	// A second encryptor built from the same passphrase opens the first one's output
	sealed, err := NewEncryptor(passphrase).Encrypt([]byte("payload"))
	require.NoError(t, err)
	opened, err := NewEncryptor(passphrase).Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(opened))
}

func TestEncryption_NonDeterministic(t *testing.T) {
	enc := NewEncryptor("test-passphrase")

	first, err := enc.Encrypt([]byte("same input"))
	require.NoError(t, err)
	second, err := enc.Encrypt([]byte("same input"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "each seal uses a fresh nonce")
	assert.True(t, strings.HasPrefix(first, Prefix))
}
