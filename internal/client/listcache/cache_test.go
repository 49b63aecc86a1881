package listcache

import (
	"sync"
	"testing"

	"github.com/kvetinski/contacts/internal/domain"
	"github.com/kvetinski/contacts/internal/query"
)

func pageOf(total int) domain.ContactPage {
	return domain.ContactPage{TotalContacts: total, CurrentPage: 1}
}

func TestCache_GetEmpty(t *testing.T) {
	c := New()
	if _, ok := c.Get(KeyFor(query.DefaultParams())); ok {
		t.Fatal("expected cache miss on empty cache")
	}
	if _, ok := c.Placeholder(); ok {
		t.Fatal("expected no placeholder before any page was shown")
	}
}

func TestCache_CompleteStoresAndShows(t *testing.T) {
	c := New()
	k := KeyFor(query.DefaultParams())

	tk := c.Begin(k)
	if !c.Complete(tk, pageOf(3)) {
		t.Fatal("expected the only ticket to be displayable")
	}

	got, ok := c.Get(k)
	if !ok || got.TotalContacts != 3 {
		t.Errorf("got %+v (hit=%v), want total 3", got, ok)
	}
	shown, ok := c.Placeholder()
	if !ok || shown.TotalContacts != 3 {
		t.Errorf("got placeholder %+v, want total 3", shown)
	}
}

func TestCache_SupersededResponseIsNotShown(t *testing.T) {
	// Given two requests where the older one resolves last
	c := New()
	p := query.DefaultParams()
	older := c.Begin(KeyFor(p))
	p.Page = 2
	newer := c.Begin(KeyFor(p))

	// When the newer one completes first
	if !c.Complete(newer, pageOf(20)) {
		t.Fatal("expected newest ticket to be displayable")
	}

	// Then the late older response is cached but not displayed
	if c.Complete(older, pageOf(10)) {
		t.Fatal("expected superseded ticket not to be displayable")
	}
	shown, _ := c.Placeholder()
	if shown.TotalContacts != 20 {
		t.Errorf("got placeholder total %d, want 20", shown.TotalContacts)
	}
	if _, ok := c.Get(older.Key); !ok {
		t.Error("expected older result to still be cached under its own key")
	}
}

func TestCache_InvalidateDropsEntriesAndInFlightResults(t *testing.T) {
	c := New()
	k := KeyFor(query.DefaultParams())
	c.Complete(c.Begin(k), pageOf(1))

	inFlight := c.Begin(k)
	c.Invalidate()

	if _, ok := c.Get(k); ok {
		t.Fatal("expected cache miss after Invalidate")
	}

	c.Complete(inFlight, pageOf(1))
	if _, ok := c.Get(k); ok {
		t.Fatal("expected pre-invalidation response not to be cached")
	}
	if _, ok := c.Placeholder(); !ok {
		t.Fatal("expected placeholder to survive Invalidate")
	}
}

func TestCache_Fail(t *testing.T) {
	c := New()
	p := query.DefaultParams()
	first := c.Begin(KeyFor(p))
	p.Search = "asha"
	second := c.Begin(KeyFor(p))

	if c.Fail(first) {
		t.Error("expected superseded failure to be ignored")
	}
	if !c.Fail(second) {
		t.Error("expected latest failure to be reported")
	}
}

func TestCache_ConcurrentUse(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := query.DefaultParams()
			p.Page = i + 1
			tk := c.Begin(KeyFor(p))
			c.Complete(tk, pageOf(i))
			if i%5 == 0 {
				c.Invalidate()
			}
		}(i)
	}
	wg.Wait()

	if _, ok := c.Placeholder(); !ok {
		t.Fatal("expected the latest ticket to have been shown")
	}
}
