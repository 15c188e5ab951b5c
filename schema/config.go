package schema

// ServiceConfig defines behavior switches for the core service.
type ServiceConfig struct {
	// CheckInvariants validates every workspace after a mutation and logs
	// violations.
	CheckInvariants bool
	// MaxTabs caps the number of tabs per user. Zero means unlimited.
	MaxTabs int
	// DefaultPaneType is used when a create request leaves Type empty.
	DefaultPaneType PaneType
}

// NormalizeServiceConfig applies defaults and validates the config.
func NormalizeServiceConfig(cfg ServiceConfig) (ServiceConfig, error) {
	if cfg.MaxTabs < 0 {
		cfg.MaxTabs = 0
	}
	if cfg.DefaultPaneType == "" {
		cfg.DefaultPaneType = PaneTerminal
	}
	if !cfg.DefaultPaneType.Valid() {
		return ServiceConfig{}, ErrInvalidPaneType
	}
	return cfg, nil
}
