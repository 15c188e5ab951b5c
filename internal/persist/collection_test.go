package persist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pkt.systems/termdeck/schema"
)

func newHosts(t *testing.T, path string) *Collection[schema.Host] {
	t.Helper()
	hosts, err := NewCollection[schema.Host](path, "hosts", nil)
	if err != nil {
		t.Fatalf("new collection: %v", err)
	}
	return hosts
}

func TestCollectionListMissing(t *testing.T) {
	hosts := newHosts(t, filepath.Join(t.TempDir(), "hosts.json"))
	items, ok, err := hosts.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if ok || len(items) != 0 {
		t.Fatalf("expected empty missing collection, got %v ok=%v", items, ok)
	}
}

func TestCollectionUpsertReplacesByID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.json")
	hosts := newHosts(t, path)
	if _, err := hosts.Upsert(schema.Host{ID: "a", Address: "a.example"}); err != nil {
		t.Fatalf("upsert a: %v", err)
	}
	if _, err := hosts.Upsert(schema.Host{ID: "b", Address: "b.example"}); err != nil {
		t.Fatalf("upsert b: %v", err)
	}
	items, err := hosts.Upsert(schema.Host{ID: "a", Address: "a2.example"})
	if err != nil {
		t.Fatalf("upsert a again: %v", err)
	}
	if len(items) != 2 || items[0].Address != "a2.example" || items[1].ID != "b" {
		t.Fatalf("unexpected items %+v", items)
	}
	reopened := newHosts(t, path)
	got, err := reopened.Get("a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Address != "a2.example" {
		t.Fatalf("expected persisted update, got %+v", got)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", info.Mode().Perm())
	}
}

func TestCollectionDelete(t *testing.T) {
	hosts := newHosts(t, filepath.Join(t.TempDir(), "hosts.json"))
	if err := hosts.Replace([]schema.Host{{ID: "a"}, {ID: "b"}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	items, err := hosts.Delete("a")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(items) != 1 || items[0].ID != "b" {
		t.Fatalf("unexpected items %+v", items)
	}
	if _, err := hosts.Delete("a"); !errors.Is(err, schema.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := hosts.Get("a"); !errors.Is(err, schema.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCollectionsShareFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	hosts := newHosts(t, path)
	snippets, err := NewCollection[schema.Snippet](path, "snippets", nil)
	if err != nil {
		t.Fatalf("new snippets: %v", err)
	}
	if _, err := hosts.Upsert(schema.Host{ID: "a", Address: "a.example"}); err != nil {
		t.Fatalf("upsert host: %v", err)
	}
	if _, err := snippets.Upsert(schema.Snippet{ID: "s", Name: "uptime", Command: "uptime"}); err != nil {
		t.Fatalf("upsert snippet: %v", err)
	}
	items, ok, err := hosts.List()
	if err != nil || !ok || len(items) != 1 {
		t.Fatalf("expected host to survive snippet write, got %v ok=%v err=%v", items, ok, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"hosts"`) || !strings.Contains(string(data), `"snippets"`) {
		t.Fatalf("expected both keys in %s", data)
	}
}

func TestCollectionInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.json")
	if err := os.WriteFile(path, []byte("{not-json"), 0o600); err != nil {
		t.Fatalf("write bad json: %v", err)
	}
	hosts := newHosts(t, path)
	if _, _, err := hosts.List(); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
	if _, err := hosts.Upsert(schema.Host{ID: "a"}); err == nil {
		t.Fatalf("expected upsert to refuse to overwrite unreadable file")
	}
}
