package sshkeys

import (
	"bytes"
	"context"
	"crypto"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"

	"pkt.systems/kryptograf"
	"pkt.systems/kryptograf/keymgmt"
	"pkt.systems/pslog"
)

const (
	vaultKeyFile     = "key.enc"
	vaultPubFile     = "key.pub"
	descriptorPrefix = "termdeck:sshkey:"
)

// Vault keeps private keys encrypted at rest, one directory per key record.
// Each key gets its own data key derived from the bundle's root key.
type Vault struct {
	bundlePath string
	dir        string
	log        pslog.Logger
}

// OpenVault ensures the key bundle and vault directory exist.
func OpenVault(bundlePath, dir string, logger pslog.Logger) (*Vault, error) {
	if strings.TrimSpace(bundlePath) == "" {
		return nil, fmt.Errorf("key bundle path is required")
	}
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("key vault directory is required")
	}
	if err := EnsureBundle(bundlePath, logger); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Vault{bundlePath: bundlePath, dir: dir, log: logger.With("key_vault", dir)}, nil
}

// EnsureBundle creates or loads the key bundle at path and ensures a root
// key exists.
func EnsureBundle(path string, logger pslog.Logger) error {
	if path == "" {
		return fmt.Errorf("key bundle path is required")
	}
	fail := func(err error) error {
		if logger != nil {
			logger.Warn("key bundle ensure failed", "path", path, "err", err)
		}
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fail(err)
	}
	store, err := keymgmt.LoadProto(path)
	if err != nil {
		return fail(err)
	}
	if _, err := store.EnsureRootKey(); err != nil {
		return fail(err)
	}
	if err := store.Commit(); err != nil {
		return fail(err)
	}
	if logger != nil {
		logger.Debug("key bundle ensure ok", "path", path)
	}
	return nil
}

// Generate creates a key for id and returns its authorized_keys line.
func (v *Vault) Generate(id, keyType string, bits int, comment string) (string, error) {
	if comment == "" {
		comment = DefaultComment
	}
	priv, err := NewPrivateKey(keyType, bits)
	if err != nil {
		return "", v.fail("key vault generate failed", id, err)
	}
	plain, err := encodePrivateKey(priv, comment)
	if err != nil {
		return "", v.fail("key vault generate failed", id, err)
	}
	pub, err := v.store(id, plain, priv, comment, false)
	if err != nil {
		return "", err
	}
	v.log.Info("key vault generated", "key", id, "type", normalizeKeyType(keyType))
	return pub, nil
}

// Import encrypts an existing unencrypted private key under id.
func (v *Vault) Import(id string, pemData []byte) (string, error) {
	priv, err := ssh.ParseRawPrivateKey(pemData)
	if err != nil {
		return "", v.fail("key vault import failed", id, err)
	}
	pub, err := v.store(id, pemData, priv, "", true)
	if err != nil {
		return "", err
	}
	v.log.Info("key vault imported", "key", id, "type", DetectKeyTypeBytes(pemData))
	return pub, nil
}

// Has reports whether key material for id exists.
func (v *Vault) Has(id string) (bool, error) {
	info, err := os.Stat(v.privateKeyPath(id))
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Remove deletes key material for id. Removing a missing key is not an error.
func (v *Vault) Remove(id string) error {
	if err := validVaultID(id); err != nil {
		return err
	}
	if err := os.RemoveAll(v.keyDir(id)); err != nil {
		return v.fail("key vault remove failed", id, err)
	}
	v.log.Info("key vault removed", "key", id)
	return nil
}

// LoadSigner decrypts the key for id as an ssh.Signer.
func (v *Vault) LoadSigner(id string) (ssh.Signer, error) {
	priv, err := v.LoadPrivateKey(id)
	if err != nil {
		return nil, err
	}
	return ssh.NewSignerFromKey(priv)
}

// LoadPrivateKey decrypts and parses the key for id.
func (v *Vault) LoadPrivateKey(id string) (crypto.PrivateKey, error) {
	if err := validVaultID(id); err != nil {
		return nil, err
	}
	file, err := os.Open(v.privateKeyPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, os.ErrNotExist
		}
		return nil, v.fail("key vault load failed", id, err)
	}
	defer func() { _ = file.Close() }()
	material, root, err := v.material(id, false)
	if err != nil {
		return nil, err
	}
	reader, err := kryptograf.New(root).DecryptReader(file, material)
	if err != nil {
		return nil, v.fail("key vault load failed", id, err)
	}
	defer func() { _ = reader.Close() }()
	plain, err := io.ReadAll(reader)
	if err != nil {
		return nil, v.fail("key vault load failed", id, err)
	}
	priv, err := ssh.ParseRawPrivateKey(plain)
	if err != nil {
		return nil, v.fail("key vault load failed", id, err)
	}
	v.log.Debug("key vault load ok", "key", id)
	return priv, nil
}

// LoadPublicKey returns the stored authorized_keys line for id.
func (v *Vault) LoadPublicKey(id string) (string, error) {
	if err := validVaultID(id); err != nil {
		return "", err
	}
	data, err := os.ReadFile(v.publicKeyPath(id))
	if err == nil {
		return strings.TrimSpace(string(data)), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", v.fail("key vault public load failed", id, err)
	}
	signer, err := v.LoadSigner(id)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(ssh.MarshalAuthorizedKey(signer.PublicKey()))), nil
}

// store encrypts plain into the key directory with a temp file and rename,
// then writes the public key next to it. rotate mints a fresh data key.
func (v *Vault) store(id string, plain []byte, priv crypto.PrivateKey, comment string, rotate bool) (string, error) {
	if err := validVaultID(id); err != nil {
		return "", err
	}
	pub, err := authorizedKey(priv, comment)
	if err != nil {
		return "", v.fail("key vault write failed", id, err)
	}
	material, root, err := v.material(id, rotate)
	if err != nil {
		return "", err
	}
	dir := v.keyDir(id)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", v.fail("key vault write failed", id, err)
	}
	tmp, err := os.CreateTemp(dir, "key-*.enc")
	if err != nil {
		return "", v.fail("key vault write failed", id, err)
	}
	tmpPath := tmp.Name()
	abort := func(err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", v.fail("key vault write failed", id, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		return abort(err)
	}
	writer, err := kryptograf.New(root).EncryptWriter(tmp, material)
	if err != nil {
		return abort(err)
	}
	if _, err := io.Copy(writer, bytes.NewReader(plain)); err != nil {
		_ = writer.Close()
		return abort(err)
	}
	if err := writer.Close(); err != nil {
		return abort(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", v.fail("key vault write failed", id, err)
	}
	if err := os.Rename(tmpPath, v.privateKeyPath(id)); err != nil {
		_ = os.Remove(tmpPath)
		return "", v.fail("key vault write failed", id, err)
	}
	if err := os.WriteFile(v.publicKeyPath(id), []byte(pub+"\n"), 0o644); err != nil {
		return "", v.fail("key vault write failed", id, err)
	}
	return pub, nil
}

func (v *Vault) material(id string, rotate bool) (keymgmt.Material, keymgmt.RootKey, error) {
	store, err := keymgmt.LoadProto(v.bundlePath)
	if err != nil {
		return keymgmt.Material{}, keymgmt.RootKey{}, v.fail("key vault material load failed", id, err)
	}
	root, err := store.EnsureRootKey()
	if err != nil {
		return keymgmt.Material{}, keymgmt.RootKey{}, v.fail("key vault material load failed", id, err)
	}
	name := descriptorPrefix + id
	var material keymgmt.Material
	if rotate {
		material, err = keymgmt.MintDEK(root, []byte(name))
		if err == nil {
			err = store.SetDescriptor(name, material.Descriptor)
		}
	} else {
		material, err = store.EnsureDescriptor(name, root, []byte(name))
	}
	if err != nil {
		return keymgmt.Material{}, keymgmt.RootKey{}, v.fail("key vault material failed", id, err)
	}
	if err := store.Commit(); err != nil {
		return keymgmt.Material{}, keymgmt.RootKey{}, v.fail("key vault material commit failed", id, err)
	}
	return material, root, nil
}

func (v *Vault) fail(msg, id string, err error) error {
	v.log.Warn(msg, "key", id, "err", err)
	return err
}

func (v *Vault) keyDir(id string) string {
	return filepath.Join(v.dir, id)
}

func (v *Vault) privateKeyPath(id string) string {
	return filepath.Join(v.keyDir(id), vaultKeyFile)
}

func (v *Vault) publicKeyPath(id string) string {
	return filepath.Join(v.keyDir(id), vaultPubFile)
}

// validVaultID keeps ids to a single path element.
func validVaultID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid key id %q", id)
	}
	return nil
}
