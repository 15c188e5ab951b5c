package sshkeys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

const (
	// KeyTypeEd25519 requests Ed25519 key generation.
	KeyTypeEd25519 = "ed25519"
	// KeyTypeRSA requests RSA key generation.
	KeyTypeRSA = "rsa"
	// KeyTypeECDSA is reported for ECDSA keys.
	KeyTypeECDSA = "ecdsa"
	// KeyTypeDSA is reported for DSA keys.
	KeyTypeDSA = "dsa"
	// KeyTypeUnknown is reported when the key format is not recognised.
	KeyTypeUnknown = "unknown"
	// DefaultRSABits is the default RSA key size in bits.
	DefaultRSABits = 3072
	// DefaultComment is written into generated public keys.
	DefaultComment = "termdeck-generated"
)

// NewPrivateKey creates a private key of the given type.
func NewPrivateKey(keyType string, bits int) (crypto.PrivateKey, error) {
	switch normalizeKeyType(keyType) {
	case KeyTypeEd25519:
		_, key, err := ed25519.GenerateKey(rand.Reader)
		return key, err
	case KeyTypeRSA:
		if bits == 0 {
			bits = DefaultRSABits
		}
		if bits < 2048 {
			return nil, fmt.Errorf("rsa bits must be at least 2048")
		}
		return rsa.GenerateKey(rand.Reader, bits)
	default:
		return nil, fmt.Errorf("unsupported ssh key type %q", keyType)
	}
}

// GenerateKeyPair writes a new OpenSSH private key to path (0600) and the
// public key to path.pub, and returns the authorized_keys line. Existing
// files are never overwritten.
func GenerateKeyPair(path, keyType string, bits int, comment string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("key path is required")
	}
	if comment == "" {
		comment = DefaultComment
	}
	priv, err := NewPrivateKey(keyType, bits)
	if err != nil {
		return "", err
	}
	plain, err := encodePrivateKey(priv, comment)
	if err != nil {
		return "", err
	}
	pub, err := authorizedKey(priv, comment)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", err
	}
	if err := writeExclusive(path, plain, 0o600); err != nil {
		return "", err
	}
	if err := writeExclusive(path+".pub", []byte(pub+"\n"), 0o644); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return pub, nil
}

// DetectKeyType reads a private key file and reports its algorithm.
func DetectKeyType(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return DetectKeyTypeBytes(data), nil
}

// DetectKeyTypeBytes reports the algorithm of PEM encoded key material.
// Encrypted OpenSSH keys are recognised from their public header.
func DetectKeyTypeBytes(data []byte) string {
	text := string(data)
	switch {
	case strings.Contains(text, "BEGIN RSA PRIVATE KEY"):
		return KeyTypeRSA
	case strings.Contains(text, "BEGIN EC PRIVATE KEY"):
		return KeyTypeECDSA
	case strings.Contains(text, "BEGIN DSA PRIVATE KEY"):
		return KeyTypeDSA
	case strings.Contains(text, "BEGIN OPENSSH PRIVATE KEY"), strings.Contains(text, "BEGIN PRIVATE KEY"):
	default:
		return KeyTypeUnknown
	}
	raw, err := ssh.ParseRawPrivateKey(data)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) && missing.PublicKey != nil {
			return typeFromPublicKey(missing.PublicKey.Type())
		}
		return KeyTypeUnknown
	}
	switch raw.(type) {
	case ed25519.PrivateKey, *ed25519.PrivateKey:
		return KeyTypeEd25519
	case *rsa.PrivateKey:
		return KeyTypeRSA
	case *ecdsa.PrivateKey:
		return KeyTypeECDSA
	default:
		return KeyTypeUnknown
	}
}

func typeFromPublicKey(algo string) string {
	switch {
	case algo == ssh.KeyAlgoED25519:
		return KeyTypeEd25519
	case algo == ssh.KeyAlgoRSA:
		return KeyTypeRSA
	case algo == "ssh-dss":
		return KeyTypeDSA
	case strings.HasPrefix(algo, "ecdsa-"):
		return KeyTypeECDSA
	default:
		return KeyTypeUnknown
	}
}

func normalizeKeyType(keyType string) string {
	keyType = strings.ToLower(strings.TrimSpace(keyType))
	if keyType == "" {
		return KeyTypeEd25519
	}
	return keyType
}

func encodePrivateKey(priv crypto.PrivateKey, comment string) ([]byte, error) {
	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(block), nil
}

func authorizedKey(priv crypto.PrivateKey, comment string) (string, error) {
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(signer.PublicKey())))
	if comment != "" {
		line += " " + comment
	}
	return line, nil
}

func writeExclusive(path string, data []byte, perm os.FileMode) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return err
	}
	return os.Chmod(path, perm)
}
