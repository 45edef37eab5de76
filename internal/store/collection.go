package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
)

type record interface {
	RecordID() string
}

// collection is an in-memory, insertion-ordered view of one stored
// collection. It is loaded whole, modified, and flushed whole.
type collection[T record] struct {
	name  string
	items []T
	index map[string]int
	// undecodable holds records that are valid JSON but do not fit T. They
	// are hidden from reads and written back unchanged after the items.
	undecodable []json.RawMessage
}

// load reads a collection. Missing, unreadable or malformed data yields an
// empty collection. A single record that does not decode is skipped.
func load[T record](s *Store, name string) *collection[T] {
	c := &collection[T]{name: name, index: make(map[string]int)}
	data, err := s.backend.Load(s.subject, name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("unreadable collection, treating as empty",
				"subject", s.subject, "collection", name, "error", err)
		}
		return c
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("malformed collection, treating as empty",
			"subject", s.subject, "collection", name, "error", err)
		return c
	}
	c.items = make([]T, 0, len(raw))
	for i, r := range raw {
		var it T
		if err := json.Unmarshal(r, &it); err != nil {
			slog.Warn("skipping undecodable record",
				"subject", s.subject, "collection", name, "position", i, "error", err)
			c.undecodable = append(c.undecodable, r)
			continue
		}
		c.items = append(c.items, it)
	}
	c.reindex()
	return c
}

func (c *collection[T]) reindex() {
	clear(c.index)
	for i, it := range c.items {
		// First occurrence wins, as with a linear scan.
		if _, ok := c.index[it.RecordID()]; !ok {
			c.index[it.RecordID()] = i
		}
	}
}

func (c *collection[T]) all() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *collection[T]) get(id string) (T, bool) {
	i, ok := c.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

// put replaces the record with the same ID in place, or appends it.
func (c *collection[T]) put(item T) {
	id := item.RecordID()
	if i, ok := c.index[id]; ok {
		c.items[i] = item
		return
	}
	c.index[id] = len(c.items)
	c.items = append(c.items, item)
}

// remove drops every record with the given ID and reports whether any was found.
func (c *collection[T]) remove(id string) bool {
	if _, ok := c.index[id]; !ok {
		return false
	}
	kept := c.items[:0]
	for _, it := range c.items {
		if it.RecordID() != id {
			kept = append(kept, it)
		}
	}
	c.items = kept
	c.reindex()
	return true
}

func (c *collection[T]) flush(s *Store) error {
	out := make([]json.RawMessage, 0, len(c.items)+len(c.undecodable))
	for _, it := range c.items {
		b, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("encode %s: %w", c.name, err)
		}
		out = append(out, b)
	}
	out = append(out, c.undecodable...)
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.name, err)
	}
	return s.backend.Flush(s.subject, c.name, data)
}
