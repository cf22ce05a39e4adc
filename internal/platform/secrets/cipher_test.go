package secrets

import (
	"strings"
	"testing"

	"observer/internal/platform/config"
)

const testHexKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher(config.SecretsConfig{Key: testHexKey})
	if err != nil {
		t.Fatalf("Failed to create cipher: %v", err)
	}

	secret := "fc-abcdefghijklmnopqrst"
	enc, err := c.Encrypt(secret)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if enc == secret || strings.Contains(enc, "fc-") {
		t.Error("Expected ciphertext to not contain the plaintext")
	}

	dec, err := c.Decrypt(enc)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if dec != secret {
		t.Errorf("Expected %q, got %q", secret, dec)
	}
}

func TestCipher_NonceVariesPerEncryption(t *testing.T) {
	c, _ := NewCipher(config.SecretsConfig{Key: testHexKey})

	a, _ := c.Encrypt("same input")
	b, _ := c.Encrypt("same input")
	if a == b {
		t.Error("Expected distinct ciphertexts for the same plaintext")
	}
}

func TestCipher_WrongKeyFails(t *testing.T) {
	c1, _ := NewCipher(config.SecretsConfig{Key: testHexKey})
	c2, _ := NewCipher(config.SecretsConfig{Key: strings.Repeat("ff", 32)})

	enc, err := c1.Encrypt("fc-abcdefghijklmnopqrst")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if _, err := c2.Decrypt(enc); err == nil {
		t.Error("Expected decryption with the wrong key to fail")
	}
}

func TestCipher_PassphraseDerivation(t *testing.T) {
	c1, err := NewCipher(config.SecretsConfig{Passphrase: "correct horse", Salt: "observer"})
	if err != nil {
		t.Fatalf("Failed to create cipher: %v", err)
	}
	c2, _ := NewCipher(config.SecretsConfig{Passphrase: "correct horse", Salt: "observer"})

	enc, _ := c1.Encrypt("fc-abcdefghijklmnopqrst")
	dec, err := c2.Decrypt(enc)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if dec != "fc-abcdefghijklmnopqrst" {
		t.Error("Expected the same passphrase and salt to derive the same key")
	}
}

func TestNewCipher_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SecretsConfig
	}{
		{"Empty", config.SecretsConfig{}},
		{"Short Hex Key", config.SecretsConfig{Key: "abcd"}},
		{"Invalid Hex", config.SecretsConfig{Key: strings.Repeat("zz", 32)}},
		{"Passphrase Without Salt", config.SecretsConfig{Passphrase: "p"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCipher(tt.cfg); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestCipher_DecryptGarbage(t *testing.T) {
	c, _ := NewCipher(config.SecretsConfig{Key: testHexKey})

	if _, err := c.Decrypt("not hex"); err == nil {
		t.Error("Expected an error for non-hex input")
	}
	if _, err := c.Decrypt("abcd"); err == nil {
		t.Error("Expected an error for truncated ciphertext")
	}
}
