package schema

import (
	"strconv"
	"strings"
)

// Host describes a connection target. It holds only value fields so that
// assigning a Host copies it completely.
type Host struct {
	ID             string `json:"id"`
	Name           string `json:"name,omitempty"`
	Address        string `json:"host,omitempty"`
	Port           int    `json:"port,omitempty"`
	Username       string `json:"username,omitempty"`
	PrivateKeyID   string `json:"privateKeyId,omitempty"`
	PrivateKeyPath string `json:"privateKeyPath,omitempty"`
	Local          bool   `json:"local,omitempty"`
}

// LocalHost is the implicit host of a local terminal.
func LocalHost() Host {
	return Host{ID: "local", Name: "local", Local: true}
}

// DisplayName returns the name shown for the host in titles and lists.
func (h Host) DisplayName() string {
	if name := strings.TrimSpace(h.Name); name != "" {
		return name
	}
	if addr := strings.TrimSpace(h.Address); addr != "" {
		return addr
	}
	if h.Local {
		return "local"
	}
	return h.ID
}

// Target renders user@address:port for display.
func (h Host) Target() string {
	if h.Local {
		return "local"
	}
	var b strings.Builder
	if h.Username != "" {
		b.WriteString(h.Username)
		b.WriteByte('@')
	}
	b.WriteString(h.Address)
	if h.Port > 0 && h.Port != 22 {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(h.Port))
	}
	return b.String()
}

// RecordID implements Record.
func (h Host) RecordID() string { return h.ID }

// WithRecordID implements Record.
func (h Host) WithRecordID(id string) Host {
	h.ID = id
	return h
}
