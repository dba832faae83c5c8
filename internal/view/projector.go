// Package view derives what the class browser shows: the filtered, sorted and
// paginated class list and the sorted fields of a class. It reads the catalog
// and never touches selection state.
package view

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"dupexport/internal/collation"
	"dupexport/internal/domain"
	"dupexport/internal/eventbus"
)

// DefaultPageSize is the number of classes per page
const DefaultPageSize = 30

const fieldCacheSize = 256

// State is the transient view state
type State struct {
	SearchTerm  string
	PageIndex   int
	ActiveClass string // "" when no class is open
}

// PageInfo describes the current page for headers such as "31-60 of 75"
type PageInfo struct {
	Index    int // zero-based
	Total    int // number of pages, 0 when nothing matches
	Start    int // one-based position of the first item, 0 when empty
	End      int
	Filtered int
}

// Projector computes the visible slice of the catalog
type Projector struct {
	pageSize int
	catalog  domain.Catalog
	sorted   []string
	filtered []string
	state    State

	fields *lru.Cache[string, []domain.Field]
	bus    eventbus.EventBus
}

// NewProjector creates a projector. A non-positive pageSize selects the default.
func NewProjector(pageSize int, bus eventbus.EventBus) *Projector {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	cache, _ := lru.New[string, []domain.Field](fieldCacheSize)
	return &Projector{
		pageSize: pageSize,
		fields:   cache,
		bus:      eventbus.OrNull(bus),
	}
}

// SetCatalog replaces the catalog and resets the view state
func (p *Projector) SetCatalog(catalog domain.Catalog) {
	p.catalog = catalog
	p.sorted = collation.Sorted(catalog.ClassNames())
	p.filtered = p.sorted
	p.state = State{}
	p.fields.Purge()
}

// PageSize returns the configured page size
func (p *Projector) PageSize() int { return p.pageSize }

// State returns a copy of the view state
func (p *Projector) State() State { return p.state }

// ApplyFilter keeps the classes whose name contains term, ignoring case, and
// returns to the first page. A blank term shows every class.
func (p *Projector) ApplyFilter(term string) {
	p.state.SearchTerm = term
	p.state.PageIndex = 0

	if strings.TrimSpace(term) == "" {
		p.filtered = p.sorted
	} else {
		needle := strings.ToLower(term)
		matches := make([]string, 0, len(p.sorted))
		for _, name := range p.sorted {
			if strings.Contains(strings.ToLower(name), needle) {
				matches = append(matches, name)
			}
		}
		p.filtered = matches
	}

	p.bus.Publish(domain.FilterAppliedEvent{Term: term, Matches: len(p.filtered)})
}

// Filtered returns every class matching the current filter, sorted
func (p *Projector) Filtered() []string {
	out := make([]string, len(p.filtered))
	copy(out, p.filtered)
	return out
}

// PageCount returns the number of pages of the filtered list
func (p *Projector) PageCount() int {
	return (len(p.filtered) + p.pageSize - 1) / p.pageSize
}

// Page moves to page index and returns its classes. Out of range indexes,
// negative ones included, are clamped to the nearest valid page.
func (p *Projector) Page(index int) []string {
	p.state.PageIndex = p.clamp(index)
	return p.Current()
}

// Current returns the classes of the current page
func (p *Projector) Current() []string {
	start := p.state.PageIndex * p.pageSize
	end := min(start+p.pageSize, len(p.filtered))
	if start >= end {
		return nil
	}
	out := make([]string, end-start)
	copy(out, p.filtered[start:end])
	return out
}

// NextPage moves forward one page, staying on the last page
func (p *Projector) NextPage() []string { return p.Page(p.state.PageIndex + 1) }

// PrevPage moves back one page, staying on the first page
func (p *Projector) PrevPage() []string { return p.Page(p.state.PageIndex - 1) }

// FirstPage moves to the first page
func (p *Projector) FirstPage() []string { return p.Page(0) }

// LastPage moves to the last page
func (p *Projector) LastPage() []string { return p.Page(p.PageCount() - 1) }

// PageInfo describes the current page
func (p *Projector) PageInfo() PageInfo {
	info := PageInfo{
		Index:    p.state.PageIndex,
		Total:    p.PageCount(),
		Filtered: len(p.filtered),
	}
	if info.Filtered > 0 {
		info.Start = p.state.PageIndex*p.pageSize + 1
		info.End = min((p.state.PageIndex+1)*p.pageSize, info.Filtered)
	}
	return info
}

// FieldsFor returns the fields of a class sorted by name. Unknown classes
// have no fields. The slice is shared between calls and must not be modified.
func (p *Projector) FieldsFor(className string) []domain.Field {
	class, ok := p.catalog[className]
	if !ok {
		return nil
	}
	if cached, ok := p.fields.Get(className); ok {
		return cached
	}

	names := collation.Sorted(class.FieldNames())
	fields := make([]domain.Field, len(names))
	for i, name := range names {
		fields[i] = class.Fields[name]
	}
	p.fields.Add(className, fields)
	return fields
}

// SetActiveClass opens a class for field editing. Classes outside the catalog
// are ignored; "" closes the active class.
func (p *Projector) SetActiveClass(className string) {
	if className != "" && !p.catalog.Has(className) {
		return
	}
	p.state.ActiveClass = className
}

// ActiveClass returns the class open for field editing, or ""
func (p *Projector) ActiveClass() string { return p.state.ActiveClass }

func (p *Projector) clamp(index int) int {
	last := p.PageCount() - 1
	if index > last {
		index = last
	}
	if index < 0 {
		index = 0
	}
	return index
}
