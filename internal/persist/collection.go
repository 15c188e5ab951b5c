package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/schema"
)

// Collection is a list of records persisted as {"<key>": [...]} in one JSON
// file. Every write rewrites the whole file and returns the updated list.
type Collection[T schema.Record[T]] struct {
	mu   sync.Mutex
	path string
	key  string
	log  pslog.Logger
}

// NewCollection binds a collection to a file and document key.
func NewCollection[T schema.Record[T]](path, key string, logger pslog.Logger) (*Collection[T], error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("collection path is required")
	}
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("collection key is required")
	}
	if logger != nil {
		logger = logger.With("collection", key)
	}
	return &Collection[T]{path: path, key: key, log: logger}, nil
}

// Path returns the backing file.
func (c *Collection[T]) Path() string {
	return c.path
}

// List returns the stored records. ok is false when nothing was ever saved.
func (c *Collection[T]) List() (items []T, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked()
}

// Get returns the record with the given id.
func (c *Collection[T]) Get(id string) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	items, _, err := c.loadLocked()
	if err != nil {
		return zero, err
	}
	for _, item := range items {
		if item.RecordID() == id {
			return item, nil
		}
	}
	return zero, schema.ErrRecordNotFound
}

// Upsert replaces the record with the same id, or appends it.
func (c *Collection[T]) Upsert(item T) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, _, err := c.loadLocked()
	if err != nil {
		return nil, err
	}
	replaced := false
	for i, existing := range items {
		if existing.RecordID() == item.RecordID() {
			items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, item)
	}
	if err := c.saveLocked(items); err != nil {
		return nil, err
	}
	if c.log != nil {
		c.log.Debug("store upsert ok", "id", item.RecordID(), "replaced", replaced, "count", len(items))
	}
	return items, nil
}

// Delete removes the record with the given id. Deleting a missing id
// reports ErrRecordNotFound and leaves the file untouched.
func (c *Collection[T]) Delete(id string) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, _, err := c.loadLocked()
	if err != nil {
		return nil, err
	}
	kept := items[:0]
	for _, item := range items {
		if item.RecordID() != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return kept, schema.ErrRecordNotFound
	}
	if err := c.saveLocked(kept); err != nil {
		return nil, err
	}
	if c.log != nil {
		c.log.Debug("store delete ok", "id", id, "count", len(kept))
	}
	return kept, nil
}

// Replace stores items as the complete collection.
func (c *Collection[T]) Replace(items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked(items)
}

func (c *Collection[T]) loadLocked() ([]T, bool, error) {
	doc, ok, err := c.readDocLocked()
	if err != nil {
		return nil, false, err
	}
	raw, present := doc[c.key]
	if !ok || !present {
		if c.log != nil {
			c.log.Trace("store load miss", "path", c.path)
		}
		return []T{}, false, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		if c.log != nil {
			c.log.Warn("store load failed", "path", c.path, "err", err)
		}
		return nil, false, fmt.Errorf("decode %s[%s]: %w", c.path, c.key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, true, nil
}

// saveLocked rewrites the collection key and keeps any other keys stored
// in the same file.
func (c *Collection[T]) saveLocked(items []T) error {
	if items == nil {
		items = []T{}
	}
	doc, _, err := c.readDocLocked()
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return err
	}
	doc[c.key] = encoded
	return writeJSON(c.path, doc, c.log)
}

func (c *Collection[T]) readDocLocked() (map[string]json.RawMessage, bool, error) {
	doc := map[string]json.RawMessage{}
	ok, err := readJSON(c.path, &doc)
	if err != nil {
		if c.log != nil {
			c.log.Warn("store load failed", "path", c.path, "err", err)
		}
		return nil, false, err
	}
	if doc == nil {
		doc = map[string]json.RawMessage{}
	}
	return doc, ok, nil
}
