package core

import (
	"pkt.systems/pslog"
	"pkt.systems/termdeck/schema"
)

// SettingsSource exposes the user settings the service consults when
// placing new tabs.
type SettingsSource interface {
	Settings() schema.Settings
}

// ServiceDeps captures optional dependencies for the core service.
type ServiceDeps struct {
	EventSink EventSink
	Settings  SettingsSource
	Logger    pslog.Logger
}
