package catalog

import "pkt.systems/termdeck/schema"

// Shortcuts returns the stored bindings, or the defaults if none were saved.
func (c *Catalog) Shortcuts() ([]schema.Shortcut, error) {
	items, ok, err := c.shortcuts.List()
	if err != nil {
		return nil, err
	}
	if !ok {
		return schema.DefaultShortcuts(), nil
	}
	return items, nil
}

// UpdateShortcut merges patch into the binding with the given id and stores
// the full list.
func (c *Catalog) UpdateShortcut(id string, patch schema.ShortcutPatch) (schema.Shortcut, error) {
	items, err := c.Shortcuts()
	if err != nil {
		return schema.Shortcut{}, err
	}
	for i, sc := range items {
		if sc.ID != id {
			continue
		}
		items[i] = patch.Apply(sc)
		if err := c.shortcuts.Replace(items); err != nil {
			return schema.Shortcut{}, err
		}
		c.publish(Change{Kind: KindShortcuts})
		return items[i], nil
	}
	return schema.Shortcut{}, schema.ErrRecordNotFound
}

// ResetShortcuts stores and returns the default bindings.
func (c *Catalog) ResetShortcuts() ([]schema.Shortcut, error) {
	defaults := schema.DefaultShortcuts()
	if err := c.shortcuts.Replace(defaults); err != nil {
		return nil, err
	}
	c.publish(Change{Kind: KindShortcuts})
	return defaults, nil
}

// Shortcut returns one binding by id.
func (c *Catalog) Shortcut(id string) (schema.Shortcut, error) {
	items, err := c.Shortcuts()
	if err != nil {
		return schema.Shortcut{}, err
	}
	for _, sc := range items {
		if sc.ID == id {
			return sc, nil
		}
	}
	return schema.Shortcut{}, schema.ErrRecordNotFound
}
