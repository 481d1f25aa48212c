package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Error variables
var (
	ErrDecryption        = errors.New("failed to decrypt secret")
	ErrEmptyMasterKey    = errors.New("master encryption key is empty")
	ErrInvalidKeyLength  = errors.New("key length must be positive")
	ErrUnknownEncoding   = errors.New("unknown key encoding")
	ErrMalformedSecret   = errors.New("malformed ciphertext")
	errAuthenticationTag = errors.New("authentication tag mismatch")
)

const (
	keySize   = 32 // AES-256
	ivSize    = 12 // GCM standard nonce
	tagSize   = 16
	separator = ":"
)

// Encoding selects the text representation produced by GenerateKey.
type Encoding string

const (
	Hex       Encoding = "hex"
	Base64    Encoding = "base64"
	Base64URL Encoding = "base64url"
)

// Params holds the Argon2id cost parameters used to derive a cipher key from the master key and a salt.
type Params struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultParams returns the production Argon2id parameters.
func DefaultParams() Params {
	return Params{
		Time:    1,
		Memory:  64 * 1024,
		Threads: 4,
	}
}

// Option configures a Vault.
type Option func(*Vault)

// WithParams overrides the Argon2id parameters.
func WithParams(p Params) Option {
	return func(v *Vault) {
		v.params = p
	}
}

// Vault encrypts and decrypts wallet secrets with AES-256-GCM.
// Every field is encrypted under its own key, derived one-way from the
// process master key and the field's salt.
type Vault struct {
	masterKey []byte
	params    Params
}

// New creates a Vault bound to the given master key.
func New(masterKey string, opts ...Option) (*Vault, error) {
	if masterKey == "" {
		return nil, ErrEmptyMasterKey
	}
	v := &Vault{
		masterKey: []byte(masterKey),
		params:    DefaultParams(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

func (v *Vault) deriveKey(salt string) []byte {
	return argon2.IDKey(v.masterKey, []byte(salt), v.params.Time, v.params.Memory, v.params.Threads, keySize)
}

func (v *Vault) aead(salt string) (cipher.AEAD, error) {
	key := v.deriveKey(salt)
	defer zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under the key derived from salt.
// Output format: base64(iv):base64(tag):base64(ciphertext)
func (v *Vault) Encrypt(plaintext, salt string) (string, error) {
	gcm, err := v.aead(salt)
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return strings.Join([]string{
		base64.StdEncoding.EncodeToString(iv),
		base64.StdEncoding.EncodeToString(tag),
		base64.StdEncoding.EncodeToString(ct),
	}, separator), nil
}

// Decrypt opens a ciphertext produced by Encrypt with the same salt.
// Every failure is reported as ErrDecryption.
func (v *Vault) Decrypt(ciphertext, salt string) (string, error) {
	parts := strings.Split(ciphertext, separator)
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: %w: expected 3 components, got %d", ErrDecryption, ErrMalformedSecret, len(parts))
	}

	iv, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(iv) != ivSize {
		return "", fmt.Errorf("%w: %w: bad iv", ErrDecryption, ErrMalformedSecret)
	}
	tag, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return "", fmt.Errorf("%w: %w: bad tag", ErrDecryption, ErrMalformedSecret)
	}
	ct, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("%w: %w: bad payload", ErrDecryption, ErrMalformedSecret)
	}

	gcm, err := v.aead(salt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecryption, err)
	}

	plaintext, err := gcm.Open(nil, iv, append(ct, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecryption, errAuthenticationTag)
	}
	return string(plaintext), nil
}

// GenerateKey returns length cryptographically random bytes in the requested encoding.
func GenerateKey(length int, encoding Encoding) (string, error) {
	if length <= 0 {
		return "", ErrInvalidKeyLength
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}

	switch encoding {
	case Hex:
		return hex.EncodeToString(buf), nil
	case Base64:
		return base64.StdEncoding.EncodeToString(buf), nil
	case Base64URL:
		return base64.RawURLEncoding.EncodeToString(buf), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
