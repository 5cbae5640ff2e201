package xctrace

import (
	"go.uber.org/zap"
)

// Cache maps identifiers to their defining elements for one table document.
type Cache struct {
	elems map[string]*Element
}

func NewCache() *Cache {
	return &Cache{elems: make(map[string]*Element)}
}

// Reset drops every identifier. Call it before a new table is processed.
func (c *Cache) Reset() {
	clear(c.elems)
}

func (c *Cache) Len() int {
	return len(c.elems)
}

func (c *Cache) put(e *Element) {
	c.elems[e.ID] = e
}

func (c *Cache) get(id string) (*Element, bool) {
	e, ok := c.elems[id]
	return e, ok
}

// Resolver reconstructs element values from id/ref compressed rows.
type Resolver struct {
	cache  *Cache
	logger *zap.Logger
	schema string
}

func NewResolver(cache *Cache, logger *zap.Logger) *Resolver {
	if cache == nil {
		cache = NewCache()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{cache: cache, logger: logger}
}

// BeginTable starts a new table document, clearing identifiers of the previous one.
func (r *Resolver) BeginTable(t *Table) {
	r.cache.Reset()
	r.schema = t.Schema
}

// Register caches every identifier-bearing element of the row, so lookups
// can follow references to siblings defined later in the same row.
func (r *Resolver) Register(row *Row) {
	var walk func(*Element)
	walk = func(n *Element) {
		for _, c := range n.Children {
			if c.ID != "" {
				r.cache.put(c)
			}
			walk(c)
		}
	}
	walk(row.Root)
}

// Resolve returns the element selected by p within row, following a
// reference when the selected element carries one.
//
// Without an index the first element that resolves wins; dangling references
// are skipped. With an index only the element at that position is
// considered. ErrNoMatch means the row has no element for p; a
// *MissingReferenceError means the candidate points at an undefined id.
func (r *Resolver) Resolve(row *Row, p Path) (*Element, error) {
	candidates := row.Root.descendants(p.Tag)
	if p.Index > 0 {
		if p.Index > len(candidates) {
			return nil, ErrNoMatch
		}
		return r.follow(row, candidates[p.Index-1])
	}
	if len(candidates) == 0 {
		return nil, ErrNoMatch
	}

	var firstErr error
	for _, c := range candidates {
		el, err := r.follow(row, c)
		if err == nil {
			return el, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// ResolveNth is Resolve with Nth(tag, n).
func (r *Resolver) ResolveNth(row *Row, tag string, n int) (*Element, error) {
	return r.Resolve(row, Nth(tag, n))
}

func (r *Resolver) follow(row *Row, el *Element) (*Element, error) {
	if el.Ref == "" {
		if el.ID != "" {
			r.cache.put(el)
		}
		return el, nil
	}

	def, ok := r.cache.get(el.Ref)
	if !ok {
		err := &MissingReferenceError{Schema: r.schema, Row: row.Index, Tag: el.Tag, Ref: el.Ref}
		r.logger.Warn("Cross-row reference not found, check the export structure",
			zap.String("schema", r.schema),
			zap.Int("row", row.Index),
			zap.String("tag", el.Tag),
			zap.String("ref", el.Ref),
		)
		return nil, err
	}
	return def, nil
}
