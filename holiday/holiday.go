// Package holiday provides the calendar lookups the recurrence engine uses
// when shifting occurrences off non-working days. Lookups are synchronous
// and side-effect-free from the engine's point of view; caching and storage
// belong to the implementations, not the callers.
package holiday

import (
	"sync"
	"time"

	"github.com/taskline/backend/domain"
)

// Lookup answers whether a calendar day is a holiday. A nil result means a
// regular day.
type Lookup interface {
	Lookup(date time.Time) *domain.Holiday
}

// Func adapts a plain function to the Lookup interface.
type Func func(date time.Time) *domain.Holiday

func (f Func) Lookup(date time.Time) *domain.Holiday {
	return f(date)
}

// None is the empty calendar.
var None = Func(func(time.Time) *domain.Holiday { return nil })

type chain []Lookup

func (c chain) Lookup(date time.Time) *domain.Holiday {
	for _, l := range c {
		if l == nil {
			continue
		}
		if h := l.Lookup(date); h != nil {
			return h
		}
	}
	return nil
}

// Chain composes lookups; the first non-nil answer wins. User-defined
// calendars go first so they override the public one.
func Chain(lookups ...Lookup) Lookup {
	return chain(lookups)
}

// Table is a fixed day-keyed calendar, typically built from a user's custom
// holidays loaded out of storage.
type Table map[string]string

// NewTable builds a Table from holiday records.
func NewTable(holidays []domain.Holiday) Table {
	t := make(Table, len(holidays))
	for _, h := range holidays {
		t[domain.DayOf(h.Date).Format(domain.DateLayout)] = h.Name
	}
	return t
}

func (t Table) Lookup(date time.Time) *domain.Holiday {
	day := domain.DayOf(date)
	name, ok := t[day.Format(domain.DateLayout)]
	if !ok {
		return nil
	}
	return &domain.Holiday{Date: day, Name: name, Custom: true}
}

type memo struct {
	next Lookup

	mu    sync.RWMutex
	cache map[string]*domain.Holiday
	known map[string]bool
}

// Memoize caches per-day answers in process. The engine re-queries the same
// dates on every render-driven recompute, so hits dominate.
func Memoize(next Lookup) Lookup {
	return &memo{
		next:  next,
		cache: make(map[string]*domain.Holiday),
		known: make(map[string]bool),
	}
}

func (m *memo) Lookup(date time.Time) *domain.Holiday {
	key := domain.DayOf(date).Format(domain.DateLayout)

	m.mu.RLock()
	if m.known[key] {
		h := m.cache[key]
		m.mu.RUnlock()
		return h
	}
	m.mu.RUnlock()

	h := m.next.Lookup(date)

	m.mu.Lock()
	m.cache[key] = h
	m.known[key] = true
	m.mu.Unlock()
	return h
}
