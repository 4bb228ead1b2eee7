package directory

import (
	"strings"
	"sync"
)

// CategoryAll is the sentinel category that disables category filtering.
const CategoryAll = "all"

// searchFields are the record fields the search term is matched against.
var searchFields = []string{
	FieldCompany,
	FieldCategory,
	FieldSpecialty,
	FieldContact,
	FieldServiceArea,
}

// FilterEngine holds the current provider list plus the active category and
// search term, and recomputes the visible subset on any change.
//
// The engine is pure state: no I/O, no fetching. It holds whatever list was
// last handed to it via SetProviders and never mutates it. Every setter is
// idempotent given the same arguments. Safe for concurrent use by HTTP
// handlers.
type FilterEngine struct {
	mu       sync.RWMutex
	base     ProviderList
	category string
	search   string
	visible  ProviderList
}

// NewFilterEngine creates an engine with no providers, category "all", and
// an empty search term.
func NewFilterEngine() *FilterEngine {
	return &FilterEngine{category: CategoryAll}
}

// SetProviders replaces the base list and recomputes the visible subset.
func (f *FilterEngine) SetProviders(list ProviderList) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.base = list
	f.recompute()
}

// SetCategory sets the active category. The sentinel "all" disables
// category filtering; no separate reset call exists or is needed.
func (f *FilterEngine) SetCategory(category string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.category = category
	f.recompute()
}

// SetSearchTerm sets the active search term, trimmed and lowercased.
// An empty term matches everything.
func (f *FilterEngine) SetSearchTerm(term string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.search = strings.ToLower(strings.TrimSpace(term))
	f.recompute()
}

// Visible returns the current visible subset, in base-list order.
func (f *FilterEngine) Visible() ProviderList {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.visible
}

// Category returns the active category.
func (f *FilterEngine) Category() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.category
}

// SearchTerm returns the active (normalized) search term.
func (f *FilterEngine) SearchTerm() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.search
}

// Categories returns the distinct categories of the base list, in first-seen
// order. Feeds the category dropdown.
func (f *FilterEngine) Categories() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	seen := make(map[string]bool, 16)
	var categories []string
	for _, rec := range f.base {
		if !seen[rec.Category] {
			seen[rec.Category] = true
			categories = append(categories, rec.Category)
		}
	}
	return categories
}

// recompute rebuilds the visible subset: category match intersected with
// search match, order preserved. Caller must hold the write lock.
func (f *FilterEngine) recompute() {
	visible := make(ProviderList, 0, len(f.base))
	for _, rec := range f.base {
		if f.matches(rec) {
			visible = append(visible, rec)
		}
	}
	f.visible = visible
}

// matches applies both active predicates to one record.
func (f *FilterEngine) matches(rec ProviderRecord) bool {
	if f.category != CategoryAll && rec.Category != f.category {
		return false
	}

	if f.search == "" {
		return true
	}

	parts := make([]string, len(searchFields))
	for i, name := range searchFields {
		parts[i] = rec.fieldValue(name)
	}
	haystack := strings.ToLower(strings.Join(parts, " "))
	return strings.Contains(haystack, f.search)
}
