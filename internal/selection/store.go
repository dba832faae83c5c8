package selection

import (
	"dupexport/internal/collation"
	"dupexport/internal/domain"
	"dupexport/internal/eventbus"
)

// record holds the selected fields of one class
type record struct {
	fields map[string]struct{}
}

// Store tracks, per catalog class, which fields will be exported. It is the
// single source of truth for the export; a class counts as selected exactly
// when its field set is non-empty.
//
// Store is not safe for concurrent use. All mutations happen on the UI loop.
type Store struct {
	catalog domain.Catalog
	order   []string // class names in display order
	records map[string]*record
	bus     eventbus.EventBus
}

// NewStore creates an empty store with no catalog
func NewStore(bus eventbus.EventBus) *Store {
	return &Store{
		records: make(map[string]*record),
		bus:     eventbus.OrNull(bus),
	}
}

// Initialize discards every record and creates one empty record per class of
// catalog.
func (s *Store) Initialize(catalog domain.Catalog) {
	s.catalog = catalog
	s.order = collation.Sorted(catalog.ClassNames())
	s.records = make(map[string]*record, len(catalog))
	for name := range catalog {
		s.records[name] = &record{fields: make(map[string]struct{})}
	}

	s.bus.Publish(domain.SelectionResetEvent{Classes: len(s.records)})
}

// Reset empties every record of the current catalog
func (s *Store) Reset() {
	s.Initialize(s.catalog)
}

// ToggleField adds or removes one field. Unknown classes and fields the class
// does not declare are ignored.
func (s *Store) ToggleField(className, fieldName string, include bool) {
	rec, ok := s.records[className]
	if !ok || !s.catalog[className].HasField(fieldName) {
		return
	}

	_, present := rec.fields[fieldName]
	switch {
	case include && !present:
		rec.fields[fieldName] = struct{}{}
		s.publish(className, []string{fieldName}, nil)
	case !include && present:
		delete(rec.fields, fieldName)
		s.publish(className, nil, []string{fieldName})
	}
}

// SelectAllFields selects every field the class declares
func (s *Store) SelectAllFields(className string) {
	rec, ok := s.records[className]
	if !ok {
		return
	}

	var added []string
	for _, name := range s.catalog[className].FieldNames() {
		if _, present := rec.fields[name]; !present {
			rec.fields[name] = struct{}{}
			added = append(added, name)
		}
	}
	if len(added) > 0 {
		collation.Sort(added)
		s.publish(className, added, nil)
	}
}

// DeselectAllFields empties the class's field set
func (s *Store) DeselectAllFields(className string) {
	rec, ok := s.records[className]
	if !ok || len(rec.fields) == 0 {
		return
	}

	removed := make([]string, 0, len(rec.fields))
	for name := range rec.fields {
		removed = append(removed, name)
	}
	collation.Sort(removed)
	rec.fields = make(map[string]struct{})
	s.publish(className, nil, removed)
}

// ClearClass removes a class from the export without touching the catalog
func (s *Store) ClearClass(className string) {
	s.DeselectAllFields(className)
}

// IsSelected reports whether a field of a class is selected
func (s *Store) IsSelected(className, fieldName string) bool {
	rec, ok := s.records[className]
	if !ok {
		return false
	}
	_, present := rec.fields[fieldName]
	return present
}

// FieldCount returns the number of selected fields of a class
func (s *Store) FieldCount(className string) int {
	if rec, ok := s.records[className]; ok {
		return len(rec.fields)
	}
	return 0
}

// SelectedFields returns the selected fields of a class in alphabetical order
func (s *Store) SelectedFields(className string) []string {
	rec, ok := s.records[className]
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(rec.fields))
	for name := range rec.fields {
		fields = append(fields, name)
	}
	collation.Sort(fields)
	return fields
}

// HasRecord reports whether the class belongs to the current catalog
func (s *Store) HasRecord(className string) bool {
	_, ok := s.records[className]
	return ok
}

// Len returns the number of records
func (s *Store) Len() int {
	return len(s.records)
}

// SelectedSummary lists every class with at least one selected field, in
// catalog display order.
func (s *Store) SelectedSummary() []domain.ClassSummary {
	var summary []domain.ClassSummary
	for _, name := range s.order {
		if n := len(s.records[name].fields); n > 0 {
			summary = append(summary, domain.ClassSummary{ClassName: name, FieldCount: n})
		}
	}
	return summary
}

// HasAnySelection reports whether any class has a selected field
func (s *Store) HasAnySelection() bool {
	for _, rec := range s.records {
		if len(rec.fields) > 0 {
			return true
		}
	}
	return false
}

func (s *Store) publish(className string, added, removed []string) {
	s.bus.Publish(domain.SelectionChangedEvent{
		ClassName:  className,
		FieldCount: len(s.records[className].fields),
		Added:      added,
		Removed:    removed,
	})
}
