package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventRepositoriesLoaded EventType = "RepositoriesLoaded"
	EventRepositorySelected EventType = "RepositorySelected"
	EventCatalogLoaded      EventType = "CatalogLoaded"
	EventCatalogCleared     EventType = "CatalogCleared"
	EventSelectionChanged   EventType = "SelectionChanged"
	EventSelectionReset     EventType = "SelectionReset"
	EventFilterApplied      EventType = "FilterApplied"
	EventSubmissionState    EventType = "SubmissionState"
	EventExportCompleted    EventType = "ExportCompleted"
	EventError              EventType = "Error"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// RepositoriesLoadedEvent is emitted when the repository list has been fetched
type RepositoriesLoadedEvent struct {
	Count int
}

func (e RepositoriesLoadedEvent) Type() EventType { return EventRepositoriesLoaded }

// RepositorySelectedEvent is emitted when the active repository changes.
// An empty ID means no repository is active.
type RepositorySelectedEvent struct {
	ID string
}

func (e RepositorySelectedEvent) Type() EventType { return EventRepositorySelected }

// CatalogLoadedEvent is emitted after a catalog replaced the previous one
type CatalogLoadedEvent struct {
	RepositoryID string
	Classes      int
}

func (e CatalogLoadedEvent) Type() EventType { return EventCatalogLoaded }

// CatalogClearedEvent is emitted when the catalog is discarded without replacement
type CatalogClearedEvent struct{}

func (e CatalogClearedEvent) Type() EventType { return EventCatalogCleared }

// SelectionChangedEvent is emitted when a class's field set changed
type SelectionChangedEvent struct {
	ClassName  string
	FieldCount int
	Added      []string
	Removed    []string
}

func (e SelectionChangedEvent) Type() EventType { return EventSelectionChanged }

// SelectionResetEvent is emitted when all selection records were re-created
type SelectionResetEvent struct {
	Classes int
}

func (e SelectionResetEvent) Type() EventType { return EventSelectionReset }

// FilterAppliedEvent is emitted after the class filter was recomputed
type FilterAppliedEvent struct {
	Term    string
	Matches int
}

func (e FilterAppliedEvent) Type() EventType { return EventFilterApplied }

// SubmissionStateEvent is emitted on every submission state transition
type SubmissionStateEvent struct {
	From string
	To   string
}

func (e SubmissionStateEvent) Type() EventType { return EventSubmissionState }

// ExportCompletedEvent is emitted when an export finished, successfully or not
type ExportCompletedEvent struct {
	ExternalName string
	Filename     string
	Bytes        int
	Err          error
}

func (e ExportCompletedEvent) Type() EventType { return EventExportCompleted }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }
