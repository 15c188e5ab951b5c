package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadRejectsUnsupportedConfigVersion(t *testing.T) {
	path := writeConfig(t, `
config_version: 3
state_dir: /state
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported config_version") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadRequiresConfigVersion(t *testing.T) {
	path := writeConfig(t, `
state_dir: /state
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "config_version is required") {
		t.Fatalf("expected missing version error, got %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SSH.Addr != ":27522" || cfg.Keys.DefaultType != "ed25519" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOverridesAndExpands(t *testing.T) {
	t.Setenv("TERMDECK_TEST_STATE", "/srv/deck")
	path := writeConfig(t, `
config_version: 1
state_dir: $TERMDECK_TEST_STATE
service:
  max_tabs: 8
  default_pane_type: sftp
store:
  hosts: $TERMDECK_TEST_STATE/hosts.json
  watch: false
ssh:
  addr: 127.0.0.1:2222
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StateDir != "/srv/deck" || cfg.Store.Hosts != "/srv/deck/hosts.json" {
		t.Fatalf("expected expanded paths, got %q and %q", cfg.StateDir, cfg.Store.Hosts)
	}
	if cfg.Service.MaxTabs != 8 || cfg.Service.DefaultPaneType != "sftp" {
		t.Fatalf("unexpected service config: %+v", cfg.Service)
	}
	if cfg.Store.Watch {
		t.Fatalf("expected watch to be disabled")
	}
	if cfg.SSH.Addr != "127.0.0.1:2222" {
		t.Fatalf("unexpected ssh addr %q", cfg.SSH.Addr)
	}
	if cfg.Keys.RSABits != 3072 {
		t.Fatalf("expected default rsa bits, got %d", cfg.Keys.RSABits)
	}
}

func TestLoadRejectsUnsupportedPaneType(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
service:
  default_pane_type: vnc
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "default_pane_type") {
		t.Fatalf("expected pane type error, got %v", err)
	}
}

func TestLoadRejectsWeakRSA(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
keys:
  default_type: rsa
  rsa_bits: 1024
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "rsa_bits") {
		t.Fatalf("expected rsa_bits error, got %v", err)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("FOO", "bar")
	value := expandEnv("$FOO/$UID/$GID/$MISSING")
	if !strings.HasPrefix(value, "bar/") {
		t.Fatalf("expected env expansion, got %q", value)
	}
	if strings.Contains(value, "$UID") || strings.Contains(value, "$GID") {
		t.Fatalf("expected UID/GID expansion, got %q", value)
	}
	if !strings.HasSuffix(value, "/$MISSING") {
		t.Fatalf("expected missing vars to remain, got %q", value)
	}
}

func TestWriteDefaultRespectsOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	written, err := WriteDefault(path, false)
	if err != nil {
		t.Fatalf("write default: %v", err)
	}
	if written != path {
		t.Fatalf("expected path %q, got %q", path, written)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config to exist: %v", err)
	}
	if _, err := WriteDefault(path, false); err == nil {
		t.Fatalf("expected error when config exists")
	}
	if _, err := WriteDefault(path, true); err != nil {
		t.Fatalf("expected overwrite to succeed: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
