package catalog

import "pkt.systems/termdeck/internal/persist"

const subscriberDepth = 16

// Subscribe returns a channel of changes and a cancel func. Slow
// subscribers miss changes instead of blocking writers.
func (c *Catalog) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, subscriberDepth)
	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()
	return ch, func() {
		c.mu.Lock()
		if _, ok := c.subs[ch]; ok {
			delete(c.subs, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
}

// Watch registers the collection files with w so edits made by another
// process are published as external changes.
func (c *Catalog) Watch(w *persist.Watcher) error {
	files := []struct {
		path string
		kind Kind
	}{
		{c.hosts.Path(), KindHosts},
		{c.keys.Path(), KindKeys},
		{c.snippets.Path(), KindSnippets},
		{c.shortcuts.Path(), KindShortcuts},
	}
	for _, file := range files {
		kind := file.kind
		if err := w.Watch(file.path, func() {
			c.publish(Change{Kind: kind, External: true})
		}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) publish(change Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for ch := range c.subs {
		select {
		case ch <- change:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		c.log.Trace("catalog change dropped", "kind", change.Kind, "count", dropped)
	}
}
