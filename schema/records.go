package schema

import "strings"

// Record is a stored catalog entry addressed by id.
type Record[T any] interface {
	RecordID() string
	WithRecordID(id string) T
}

// PrivateKey describes an SSH private key known to the user.
type PrivateKey struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Path      string `json:"path,omitempty"`
	Type      string `json:"type,omitempty"`
	PublicKey string `json:"publicKey,omitempty"`
	// Vaulted keys are stored encrypted in the key vault instead of at Path.
	Vaulted bool `json:"vaulted,omitempty"`
}

// RecordID implements Record.
func (k PrivateKey) RecordID() string { return k.ID }

// WithRecordID implements Record.
func (k PrivateKey) WithRecordID(id string) PrivateKey {
	k.ID = id
	return k
}

// Snippet is a saved command that can be sent to a pane.
type Snippet struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
}

// RecordID implements Record.
func (s Snippet) RecordID() string { return s.ID }

// WithRecordID implements Record.
func (s Snippet) WithRecordID(id string) Snippet {
	s.ID = id
	return s
}

// ValidateHost checks the fields a saved host needs.
func ValidateHost(h Host) error {
	if h.Local {
		return nil
	}
	if strings.TrimSpace(h.Address) == "" {
		return ErrInvalidRecord
	}
	if h.Port < 0 || h.Port > 65535 {
		return ErrInvalidRecord
	}
	return nil
}

// ValidateSnippet checks the fields a saved snippet needs.
func ValidateSnippet(s Snippet) error {
	if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Command) == "" {
		return ErrInvalidRecord
	}
	return nil
}
