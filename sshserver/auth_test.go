package sshserver

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/ssh"
)

func newPublicKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("public key: %v", err)
	}
	return key
}

func TestAuthorizedKeysReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authorized_keys")
	auth, err := LoadAuthorizedKeys(path, nil)
	if err != nil {
		t.Fatalf("load missing file: %v", err)
	}
	first := newPublicKey(t)
	second := newPublicKey(t)
	if auth.Allowed(first) {
		t.Fatalf("expected empty set to reject")
	}

	content := "# operators\n\n" + string(ssh.MarshalAuthorizedKey(first))
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := auth.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !auth.Allowed(first) || auth.Allowed(second) || auth.Len() != 1 {
		t.Fatalf("unexpected key set after reload")
	}

	if err := os.WriteFile(path, []byte("not a key\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := auth.Reload(); err == nil {
		t.Fatalf("expected parse error")
	}
	if !auth.Allowed(first) {
		t.Fatalf("expected previous set to survive a bad reload")
	}
}

func TestEnsureHostKeyIsStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ssh", "host_key")
	first, err := EnsureHostKey(path)
	if err != nil {
		t.Fatalf("ensure host key: %v", err)
	}
	second, err := EnsureHostKey(path)
	if err != nil {
		t.Fatalf("reload host key: %v", err)
	}
	if ssh.FingerprintSHA256(first.PublicKey()) != ssh.FingerprintSHA256(second.PublicKey()) {
		t.Fatalf("expected the same host key on reload")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 host key, got %v", info.Mode().Perm())
	}
	if _, err := EnsureHostKey(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
