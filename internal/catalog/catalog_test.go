package catalog

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"pkt.systems/termdeck/schema"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	dir := t.TempDir()
	cat, err := Open(Paths{
		Hosts:     filepath.Join(dir, "hosts.json"),
		Keys:      filepath.Join(dir, "keys.json"),
		Snippets:  filepath.Join(dir, "snippets.json"),
		Shortcuts: filepath.Join(dir, "shortcuts.json"),
	}, nil)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	return cat
}

func TestSaveHostAssignsUUID(t *testing.T) {
	cat := openTestCatalog(t)
	host, err := cat.SaveHost(schema.Host{Name: "prod", Address: "10.1.1.1", Username: "ops"})
	if err != nil {
		t.Fatalf("save host: %v", err)
	}
	if _, err := uuid.Parse(host.ID); err != nil {
		t.Fatalf("expected uuid id, got %q: %v", host.ID, err)
	}
	found, err := cat.FindHost("PROD")
	if err != nil {
		t.Fatalf("find host: %v", err)
	}
	if found.ID != host.ID {
		t.Fatalf("expected lookup by name to return %q, got %q", host.ID, found.ID)
	}
	if _, err := cat.SaveHost(schema.Host{Name: "broken"}); !errors.Is(err, schema.ErrInvalidRecord) {
		t.Fatalf("expected host without address to be rejected, got %v", err)
	}
}

func TestDeleteHost(t *testing.T) {
	cat := openTestCatalog(t)
	host, err := cat.SaveHost(schema.Host{Address: "db"})
	if err != nil {
		t.Fatalf("save host: %v", err)
	}
	if err := cat.DeleteHost(host.ID); err != nil {
		t.Fatalf("delete host: %v", err)
	}
	if _, err := cat.Host(host.ID); !errors.Is(err, schema.ErrRecordNotFound) {
		t.Fatalf("expected host to be gone, got %v", err)
	}
	if err := cat.DeleteHost(host.ID); !errors.Is(err, schema.ErrRecordNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestReplaceHosts(t *testing.T) {
	cat := openTestCatalog(t)
	if _, err := cat.SaveHost(schema.Host{Address: "old"}); err != nil {
		t.Fatalf("save host: %v", err)
	}
	if err := cat.ReplaceHosts([]schema.Host{{Address: "a"}, {ID: "fixed", Address: "b"}}); err != nil {
		t.Fatalf("replace hosts: %v", err)
	}
	hosts, err := cat.Hosts()
	if err != nil {
		t.Fatalf("hosts: %v", err)
	}
	if len(hosts) != 2 || hosts[0].ID == "" || hosts[1].ID != "fixed" {
		t.Fatalf("unexpected hosts %+v", hosts)
	}
}

func TestSnippetsAndKeys(t *testing.T) {
	cat := openTestCatalog(t)
	snip, err := cat.SaveSnippet(schema.Snippet{Name: "disk", Command: "df -h"})
	if err != nil {
		t.Fatalf("save snippet: %v", err)
	}
	snip.Command = "df -hT"
	if _, err := cat.SaveSnippet(snip); err != nil {
		t.Fatalf("update snippet: %v", err)
	}
	snippets, err := cat.Snippets()
	if err != nil {
		t.Fatalf("snippets: %v", err)
	}
	if len(snippets) != 1 || snippets[0].Command != "df -hT" {
		t.Fatalf("unexpected snippets %+v", snippets)
	}
	if _, err := cat.SaveSnippet(schema.Snippet{Name: "empty"}); !errors.Is(err, schema.ErrInvalidRecord) {
		t.Fatalf("expected empty command to be rejected, got %v", err)
	}
	key, err := cat.SaveKey(schema.PrivateKey{Name: "laptop", Path: "/home/u/.ssh/id_ed25519", Type: "ed25519"})
	if err != nil {
		t.Fatalf("save key: %v", err)
	}
	if err := cat.DeleteKey(key.ID); err != nil {
		t.Fatalf("delete key: %v", err)
	}
	keys, err := cat.Keys()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no keys, got %+v", keys)
	}
}

func TestShortcutsDefaultUpdateReset(t *testing.T) {
	cat := openTestCatalog(t)
	shortcuts, err := cat.Shortcuts()
	if err != nil {
		t.Fatalf("shortcuts: %v", err)
	}
	if len(shortcuts) != len(schema.DefaultShortcuts()) {
		t.Fatalf("expected defaults, got %d", len(shortcuts))
	}
	key := "n"
	updated, err := cat.UpdateShortcut("new-terminal", schema.ShortcutPatch{Key: &key})
	if err != nil {
		t.Fatalf("update shortcut: %v", err)
	}
	if updated.Key != "n" || !updated.Meta || updated.Name != "New Local Terminal" {
		t.Fatalf("expected partial update, got %+v", updated)
	}
	stored, err := cat.Shortcut("new-terminal")
	if err != nil {
		t.Fatalf("shortcut: %v", err)
	}
	if stored.Key != "n" {
		t.Fatalf("expected update to persist, got %+v", stored)
	}
	if _, err := cat.UpdateShortcut("nope", schema.ShortcutPatch{}); !errors.Is(err, schema.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := cat.ResetShortcuts(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	stored, err = cat.Shortcut("new-terminal")
	if err != nil {
		t.Fatalf("shortcut: %v", err)
	}
	if stored.Key != "t" {
		t.Fatalf("expected default key after reset, got %q", stored.Key)
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	cat := openTestCatalog(t)
	ch, cancel := cat.Subscribe()
	defer cancel()
	if _, err := cat.SaveSnippet(schema.Snippet{Name: "up", Command: "uptime"}); err != nil {
		t.Fatalf("save snippet: %v", err)
	}
	select {
	case change := <-ch:
		if change.Kind != KindSnippets || change.External {
			t.Fatalf("unexpected change %+v", change)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for change")
	}
}
