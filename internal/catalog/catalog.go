// Package catalog keeps the user's saved hosts, private keys, snippets and
// shortcuts.
package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"pkt.systems/pslog"
	"pkt.systems/termdeck/internal/persist"
	"pkt.systems/termdeck/schema"
)

// Kind names a record collection.
type Kind string

const (
	KindHosts     Kind = "hosts"
	KindKeys      Kind = "privateKeys"
	KindSnippets  Kind = "snippets"
	KindShortcuts Kind = "shortcuts"
)

// Change reports that a collection was written. External is set when the
// write came from another process and was picked up by a watcher.
type Change struct {
	Kind     Kind
	External bool
}

// Paths locates the collection files. Paths may coincide; collections
// sharing a file keep each other's keys.
type Paths struct {
	Hosts     string
	Keys      string
	Snippets  string
	Shortcuts string
}

// Catalog is the record store used by the CLI and the SSH console.
type Catalog struct {
	hosts     *persist.Collection[schema.Host]
	keys      *persist.Collection[schema.PrivateKey]
	snippets  *persist.Collection[schema.Snippet]
	shortcuts *persist.Collection[schema.Shortcut]
	log       pslog.Logger

	mu   sync.Mutex
	subs map[chan Change]struct{}
}

// Open binds a catalog to its files.
func Open(paths Paths, logger pslog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	hosts, err := persist.NewCollection[schema.Host](paths.Hosts, string(KindHosts), logger)
	if err != nil {
		return nil, err
	}
	keys, err := persist.NewCollection[schema.PrivateKey](paths.Keys, string(KindKeys), logger)
	if err != nil {
		return nil, err
	}
	snippets, err := persist.NewCollection[schema.Snippet](paths.Snippets, string(KindSnippets), logger)
	if err != nil {
		return nil, err
	}
	shortcuts, err := persist.NewCollection[schema.Shortcut](paths.Shortcuts, string(KindShortcuts), logger)
	if err != nil {
		return nil, err
	}
	return &Catalog{
		hosts:     hosts,
		keys:      keys,
		snippets:  snippets,
		shortcuts: shortcuts,
		log:       logger,
		subs:      make(map[chan Change]struct{}),
	}, nil
}

// Hosts lists saved hosts.
func (c *Catalog) Hosts() ([]schema.Host, error) {
	items, _, err := c.hosts.List()
	return items, err
}

// Host returns a saved host.
func (c *Catalog) Host(id string) (schema.Host, error) {
	return c.hosts.Get(id)
}

// FindHost resolves a host by id or, failing that, by case-insensitive name.
func (c *Catalog) FindHost(ref string) (schema.Host, error) {
	if host, err := c.hosts.Get(ref); err == nil {
		return host, nil
	}
	hosts, err := c.Hosts()
	if err != nil {
		return schema.Host{}, err
	}
	for _, host := range hosts {
		if strings.EqualFold(host.Name, ref) {
			return host, nil
		}
	}
	return schema.Host{}, schema.ErrRecordNotFound
}

// SaveHost validates and upserts a host, assigning an id when missing.
func (c *Catalog) SaveHost(host schema.Host) (schema.Host, error) {
	if err := schema.ValidateHost(host); err != nil {
		return schema.Host{}, err
	}
	host = withID(host)
	if _, err := c.hosts.Upsert(host); err != nil {
		return schema.Host{}, err
	}
	c.publish(Change{Kind: KindHosts})
	return host, nil
}

// DeleteHost removes a host.
func (c *Catalog) DeleteHost(id string) error {
	if _, err := c.hosts.Delete(id); err != nil {
		return err
	}
	c.publish(Change{Kind: KindHosts})
	return nil
}

// ReplaceHosts stores hosts as the complete host list.
func (c *Catalog) ReplaceHosts(hosts []schema.Host) error {
	for i := range hosts {
		hosts[i] = withID(hosts[i])
	}
	if err := c.hosts.Replace(hosts); err != nil {
		return err
	}
	c.publish(Change{Kind: KindHosts})
	return nil
}

// Keys lists known private keys.
func (c *Catalog) Keys() ([]schema.PrivateKey, error) {
	items, _, err := c.keys.List()
	return items, err
}

// Key returns a known private key.
func (c *Catalog) Key(id string) (schema.PrivateKey, error) {
	return c.keys.Get(id)
}

// SaveKey upserts a private key record, assigning an id when missing.
func (c *Catalog) SaveKey(key schema.PrivateKey) (schema.PrivateKey, error) {
	if strings.TrimSpace(key.Name) == "" {
		return schema.PrivateKey{}, schema.ErrInvalidRecord
	}
	key = withID(key)
	if _, err := c.keys.Upsert(key); err != nil {
		return schema.PrivateKey{}, err
	}
	c.publish(Change{Kind: KindKeys})
	return key, nil
}

// DeleteKey removes a private key record. Key material is not touched.
func (c *Catalog) DeleteKey(id string) error {
	if _, err := c.keys.Delete(id); err != nil {
		return err
	}
	c.publish(Change{Kind: KindKeys})
	return nil
}

// Snippets lists saved snippets.
func (c *Catalog) Snippets() ([]schema.Snippet, error) {
	items, _, err := c.snippets.List()
	return items, err
}

// Snippet returns a saved snippet.
func (c *Catalog) Snippet(id string) (schema.Snippet, error) {
	return c.snippets.Get(id)
}

// SaveSnippet validates and upserts a snippet, assigning an id when missing.
func (c *Catalog) SaveSnippet(snippet schema.Snippet) (schema.Snippet, error) {
	if err := schema.ValidateSnippet(snippet); err != nil {
		return schema.Snippet{}, err
	}
	snippet = withID(snippet)
	if _, err := c.snippets.Upsert(snippet); err != nil {
		return schema.Snippet{}, err
	}
	c.publish(Change{Kind: KindSnippets})
	return snippet, nil
}

// DeleteSnippet removes a snippet.
func (c *Catalog) DeleteSnippet(id string) error {
	if _, err := c.snippets.Delete(id); err != nil {
		return err
	}
	c.publish(Change{Kind: KindSnippets})
	return nil
}

func withID[T schema.Record[T]](record T) T {
	if strings.TrimSpace(record.RecordID()) == "" {
		return record.WithRecordID(uuid.NewString())
	}
	return record
}
