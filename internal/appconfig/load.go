package appconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	"pkt.systems/termdeck/internal/sshkeys"
	"pkt.systems/termdeck/schema"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("service.check_invariants", cfg.Service.CheckInvariants)
	v.SetDefault("service.max_tabs", cfg.Service.MaxTabs)
	v.SetDefault("service.default_pane_type", cfg.Service.DefaultPaneType)
	v.SetDefault("store.hosts", cfg.Store.Hosts)
	v.SetDefault("store.keys", cfg.Store.Keys)
	v.SetDefault("store.snippets", cfg.Store.Snippets)
	v.SetDefault("store.shortcuts", cfg.Store.Shortcuts)
	v.SetDefault("store.prefs", cfg.Store.Prefs)
	v.SetDefault("store.watch", cfg.Store.Watch)
	v.SetDefault("store.debounce_ms", cfg.Store.DebounceMS)
	v.SetDefault("keys.dir", cfg.Keys.Dir)
	v.SetDefault("keys.bundle_path", cfg.Keys.BundlePath)
	v.SetDefault("keys.vault_dir", cfg.Keys.VaultDir)
	v.SetDefault("keys.default_type", cfg.Keys.DefaultType)
	v.SetDefault("keys.rsa_bits", cfg.Keys.RSABits)
	v.SetDefault("ssh.addr", cfg.SSH.Addr)
	v.SetDefault("ssh.host_key_path", cfg.SSH.HostKeyPath)
	v.SetDefault("ssh.authorized_keys_path", cfg.SSH.AuthorizedKeysPath)
	v.SetDefault("ssh.prompt", cfg.SSH.Prompt)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if !schema.PaneType(cfg.Service.DefaultPaneType).Valid() {
		return fmt.Errorf("service.default_pane_type must be %q or %q", schema.PaneTerminal, schema.PaneSFTP)
	}
	if cfg.Service.MaxTabs < 0 {
		return fmt.Errorf("service.max_tabs must not be negative")
	}
	switch strings.ToLower(cfg.Keys.DefaultType) {
	case sshkeys.KeyTypeEd25519:
	case sshkeys.KeyTypeRSA:
		if cfg.Keys.RSABits < 2048 {
			return fmt.Errorf("keys.rsa_bits must be at least 2048")
		}
	default:
		return fmt.Errorf("unsupported keys.default_type %q", cfg.Keys.DefaultType)
	}
	if strings.TrimSpace(cfg.SSH.Addr) == "" {
		return fmt.Errorf("ssh.addr is required")
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.StateDir = expandEnv(cfg.StateDir)
	cfg.Store.Hosts = expandEnv(cfg.Store.Hosts)
	cfg.Store.Keys = expandEnv(cfg.Store.Keys)
	cfg.Store.Snippets = expandEnv(cfg.Store.Snippets)
	cfg.Store.Shortcuts = expandEnv(cfg.Store.Shortcuts)
	cfg.Store.Prefs = expandEnv(cfg.Store.Prefs)
	cfg.Keys.Dir = expandEnv(cfg.Keys.Dir)
	cfg.Keys.BundlePath = expandEnv(cfg.Keys.BundlePath)
	cfg.Keys.VaultDir = expandEnv(cfg.Keys.VaultDir)
	cfg.SSH.HostKeyPath = expandEnv(cfg.SSH.HostKeyPath)
	cfg.SSH.AuthorizedKeysPath = expandEnv(cfg.SSH.AuthorizedKeysPath)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
