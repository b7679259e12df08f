package middleware

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/tendril/pkg/ports"
)

// envelopeMagic prefixes every encrypted payload.
var envelopeMagic = []byte("tendril:aesgcm:v1:")

// ErrNotEncrypted is returned by Load when the stored payload carries no envelope.
var ErrNotEncrypted = errors.New("payload is missing encryption envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey encrypts new payloads. Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot decrypt,
	// so keys can rotate without rewriting stored entries.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	passthrough
	config EncryptionConfig
}

// NewEncryptionMiddleware encrypts payloads with AES-256-GCM. It panics when
// the active key is not 32 bytes.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.Backend) ports.Backend {
		return &encryptionMiddleware{passthrough: passthrough{next: next}, config: config}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, key string, payload []byte) error {
	sealed, err := encrypt(payload, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt %q: %w", key, err)
	}
	return m.next.Save(ctx, key, append(append([]byte(nil), envelopeMagic...), sealed...))
}

// Load fails closed: plaintext entries are rejected rather than returned.
func (m *encryptionMiddleware) Load(ctx context.Context, key string) ([]byte, error) {
	stored, err := m.next.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(stored, envelopeMagic) {
		return nil, fmt.Errorf("%q: %w", key, ErrNotEncrypted)
	}
	plain, err := decryptWithRotation(stored[len(envelopeMagic):], m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt %q: %w", key, err)
	}
	return plain, nil
}

func encrypt(plaintext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	for _, key := range append([][]byte{activeKey}, fallbackKeys...) {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
