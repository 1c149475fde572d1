// Package crypto seals stored snapshots so a public or shared backend (a Gist,
// a shared Redis) does not expose them in clear text.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	iterations = 100000
	keySize    = 32 // AES-256

	// Prefix marks sealed content. Anything without it is treated as plain text.
	Prefix = "enc:v1:"
)

// ErrDecrypt is returned when sealed content cannot be opened with the key
var ErrDecrypt = errors.New("cannot decrypt content")

// Encryptor seals and opens stored content
type Encryptor struct {
	key []byte
}

// NewEncryptor creates a new encryptor with the given passphrase.
// It returns nil for an empty passphrase; a nil Encryptor passes data through.
func NewEncryptor(passphrase string) *Encryptor {
	if passphrase == "" {
		return nil
	}

	// The salt is derived from the passphrase so the same key comes out on every run
	salt := sha256.Sum256([]byte(passphrase + "nyrr-watch-salt"))
	key := pbkdf2.Key([]byte(passphrase), salt[:], iterations, keySize, sha256.New)

	return &Encryptor{key: key}
}

// Encrypt seals plaintext with AES-GCM and returns it prefixed and base64 encoded
func (e *Encryptor) Encrypt(plaintext []byte) (string, error) {
	if e == nil || e.key == nil {
		return string(plaintext), nil
	}

	gcm, err := e.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Wrap(err, "generating nonce")
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return Prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens content produced by Encrypt.
// Content without the prefix was stored before encryption was enabled and is
// returned unchanged.
func (e *Encryptor) Decrypt(content string) ([]byte, error) {
	if !IsSealed(content) {
		return []byte(content), nil
	}
	if e == nil || e.key == nil {
		return nil, errors.Wrap(ErrDecrypt, "content is encrypted but no key is configured")
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(content, Prefix))
	if err != nil {
		return nil, errors.Wrap(ErrDecrypt, "invalid base64")
	}

	gcm, err := e.gcm()
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, errors.Wrap(ErrDecrypt, "ciphertext too short")
	}

	nonce, cipherData := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, cipherData, nil)
	if err != nil {
		return nil, errors.Wrap(ErrDecrypt, "wrong key or corrupted content")
	}

	return plaintext, nil
}

// IsSealed reports whether content was produced by Encrypt
func IsSealed(content string) bool {
	return strings.HasPrefix(content, Prefix)
}

func (e *Encryptor) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, errors.Wrap(err, "creating cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "creating GCM")
	}
	return gcm, nil
}
