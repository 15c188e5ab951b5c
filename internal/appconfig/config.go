package appconfig

import (
	"os"
	"path/filepath"

	"pkt.systems/termdeck/internal/sshkeys"
	"pkt.systems/termdeck/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string        `mapstructure:"state_dir" yaml:"state_dir"`
	Service       ServiceConfig `mapstructure:"service" yaml:"service"`
	Store         StoreConfig   `mapstructure:"store" yaml:"store"`
	Keys          KeysConfig    `mapstructure:"keys" yaml:"keys"`
	SSH           SSHConfig     `mapstructure:"ssh" yaml:"ssh"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// ServiceConfig controls core service behavior.
type ServiceConfig struct {
	CheckInvariants bool   `mapstructure:"check_invariants" yaml:"check_invariants"`
	MaxTabs         int    `mapstructure:"max_tabs" yaml:"max_tabs"`
	DefaultPaneType string `mapstructure:"default_pane_type" yaml:"default_pane_type"`
}

// StoreConfig locates the persisted collections and preferences.
type StoreConfig struct {
	Hosts      string `mapstructure:"hosts" yaml:"hosts"`
	Keys       string `mapstructure:"keys" yaml:"keys"`
	Snippets   string `mapstructure:"snippets" yaml:"snippets"`
	Shortcuts  string `mapstructure:"shortcuts" yaml:"shortcuts"`
	Prefs      string `mapstructure:"prefs" yaml:"prefs"`
	Watch      bool   `mapstructure:"watch" yaml:"watch"`
	DebounceMS int    `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// KeysConfig controls key generation and the encrypted key vault.
type KeysConfig struct {
	Dir         string `mapstructure:"dir" yaml:"dir"`
	BundlePath  string `mapstructure:"bundle_path" yaml:"bundle_path"`
	VaultDir    string `mapstructure:"vault_dir" yaml:"vault_dir"`
	DefaultType string `mapstructure:"default_type" yaml:"default_type"`
	RSABits     int    `mapstructure:"rsa_bits" yaml:"rsa_bits"`
}

// SSHConfig configures the SSH control console.
type SSHConfig struct {
	Addr               string `mapstructure:"addr" yaml:"addr"`
	HostKeyPath        string `mapstructure:"host_key_path" yaml:"host_key_path"`
	AuthorizedKeysPath string `mapstructure:"authorized_keys_path" yaml:"authorized_keys_path"`
	Prompt             string `mapstructure:"prompt" yaml:"prompt"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	base := filepath.Join(home, ".termdeck")
	state := filepath.Join(base, "state")
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      state,
		Service: ServiceConfig{
			CheckInvariants: false,
			MaxTabs:         0,
			DefaultPaneType: string(schema.PaneTerminal),
		},
		Store: StoreConfig{
			Hosts:      filepath.Join(state, "hosts.json"),
			Keys:       filepath.Join(state, "private-keys.json"),
			Snippets:   filepath.Join(state, "snippets.json"),
			Shortcuts:  filepath.Join(state, "shortcuts.json"),
			Prefs:      filepath.Join(state, "prefs.json"),
			Watch:      true,
			DebounceMS: 100,
		},
		Keys: KeysConfig{
			Dir:         filepath.Join(home, ".ssh"),
			BundlePath:  filepath.Join(state, "keys", "keys.bundle"),
			VaultDir:    filepath.Join(state, "keys", "vault"),
			DefaultType: sshkeys.KeyTypeEd25519,
			RSABits:     sshkeys.DefaultRSABits,
		},
		SSH: SSHConfig{
			Addr:               ":27522",
			HostKeyPath:        filepath.Join(base, "ssh_host_key"),
			AuthorizedKeysPath: filepath.Join(base, "authorized_keys"),
			Prompt:             "termdeck> ",
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".termdeck", "config.yaml"), nil
}

// CoreConfig converts the service section into the core service config.
func (c ServiceConfig) CoreConfig() (schema.ServiceConfig, error) {
	return schema.NormalizeServiceConfig(schema.ServiceConfig{
		CheckInvariants: c.CheckInvariants,
		MaxTabs:         c.MaxTabs,
		DefaultPaneType: schema.PaneType(c.DefaultPaneType),
	})
}
