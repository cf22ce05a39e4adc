package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
	"observer/internal/platform/config"
)

const pbkdf2Iterations = 4096

// Cipher encrypts stored API keys with AES-256-GCM so the raw secret never
// reaches the database. The key comes from config: either 32 bytes of hex,
// or derived from a passphrase and salt.
type Cipher struct {
	key []byte
}

func NewCipher(cfg config.SecretsConfig) (*Cipher, error) {
	var key []byte

	switch {
	case cfg.Key != "":
		decoded, err := hex.DecodeString(cfg.Key)
		if err != nil || len(decoded) != 32 {
			return nil, errors.New("secrets.key must be 32 bytes of hex")
		}
		key = decoded
	case cfg.Passphrase != "":
		if cfg.Salt == "" {
			return nil, errors.New("secrets.salt is required with secrets.passphrase")
		}
		key = pbkdf2.Key([]byte(cfg.Passphrase), []byte(cfg.Salt), pbkdf2Iterations, 32, sha256.New)
	default:
		return nil, errors.New("secrets.key or secrets.passphrase must be configured")
	}

	return &Cipher{key: key}, nil
}

func (c *Cipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(ciphertext), nil
}

func (c *Cipher) Decrypt(ciphertextHex string) (string, error) {
	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return "", fmt.Errorf("failed to decode hex: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}
