package sshserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/crypto/ssh"

	"pkt.systems/pslog"
)

// AuthorizedKeys is the set of public keys allowed to open a console. It is
// read from an OpenSSH authorized_keys file.
type AuthorizedKeys struct {
	path string
	log  pslog.Logger

	mu   sync.RWMutex
	keys map[string]string
}

// LoadAuthorizedKeys reads the file at path. A missing file yields an empty
// set so the file can be created later and picked up by Reload.
func LoadAuthorizedKeys(path string, logger pslog.Logger) (*AuthorizedKeys, error) {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	a := &AuthorizedKeys{path: path, log: logger, keys: map[string]string{}}
	if err := a.Reload(); err != nil {
		return nil, err
	}
	return a, nil
}

// Path returns the backing file.
func (a *AuthorizedKeys) Path() string {
	return a.path
}

// Reload re-reads the file. On a parse error the previous set is kept.
func (a *AuthorizedKeys) Reload() error {
	data, err := os.ReadFile(a.path)
	if errors.Is(err, os.ErrNotExist) {
		a.log.Warn("ssh authorized keys missing", "path", a.path)
		data = nil
	} else if err != nil {
		return fmt.Errorf("read authorized keys: %w", err)
	}
	keys, err := parseAuthorizedKeys(data)
	if err != nil {
		a.log.Warn("ssh authorized keys rejected", "path", a.path, "err", err)
		return err
	}
	a.mu.Lock()
	a.keys = keys
	a.mu.Unlock()
	a.log.Info("ssh authorized keys loaded", "path", a.path, "keys", len(keys))
	return nil
}

// Allowed reports whether key is in the set.
func (a *AuthorizedKeys) Allowed(key ssh.PublicKey) bool {
	if a == nil || key == nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.keys[string(key.Marshal())]
	return ok
}

// Len returns the number of keys.
func (a *AuthorizedKeys) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.keys)
}

func parseAuthorizedKeys(data []byte) (map[string]string, error) {
	keys := make(map[string]string)
	line := 0
	for len(data) > 0 {
		line++
		var current []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			current, data = data[:i], data[i+1:]
		} else {
			current, data = data, nil
		}
		current = bytes.TrimSpace(current)
		if len(current) == 0 || current[0] == '#' {
			continue
		}
		key, comment, _, _, err := ssh.ParseAuthorizedKey(current)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		keys[string(key.Marshal())] = comment
	}
	return keys, nil
}
