// Package listcache keeps fetched contact list pages keyed by the list
// parameters and decides which in-flight response may be displayed.
package listcache

import (
	"sync"

	"github.com/kvetinski/contacts/internal/domain"
	"github.com/kvetinski/contacts/internal/query"
)

// Key identifies one list result.
type Key struct {
	Page    int
	Sort    string
	Search  string
	Country string
}

// KeyFor derives the key of p. Limit is fixed per client and not part of it.
func KeyFor(p query.Params) Key {
	return Key{Page: p.Page, Sort: p.Sort, Search: p.Search, Country: p.Country}
}

// Ticket is handed out by Begin and redeemed by Complete or Fail.
type Ticket struct {
	Key Key
	gen uint64
	seq uint64
}

type Cache struct {
	mu      sync.Mutex
	entries map[Key]domain.ContactPage
	gen     uint64
	seq     uint64

	shown    domain.ContactPage
	hasShown bool
}

func New() *Cache {
	return &Cache{entries: make(map[Key]domain.ContactPage)}
}

// Get returns the cached page for k.
func (c *Cache) Get(k Key) (domain.ContactPage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, ok := c.entries[k]
	return page, ok
}

// Begin registers a fetch for k. It supersedes every earlier ticket.
func (c *Cache) Begin(k Key) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	return Ticket{Key: k, gen: c.gen, seq: c.seq}
}

// Complete stores page unless an Invalidate happened after t was issued, and
// reports whether t is the latest ticket. Only then should page be displayed.
func (c *Cache) Complete(t Ticket, page domain.ContactPage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.gen == c.gen {
		c.entries[t.Key] = page
	}
	if t.seq != c.seq {
		return false
	}

	c.shown = page
	c.hasShown = true
	return true
}

// Fail reports whether the failed fetch was the latest one.
func (c *Cache) Fail(t Ticket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return t.seq == c.seq
}

// Placeholder returns the most recently displayed page.
func (c *Cache) Placeholder() (domain.ContactPage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.shown, c.hasShown
}

// Invalidate drops every cached page. The placeholder stays.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Key]domain.ContactPage)
	c.gen++
}
