package ui

import (
	"dupexport/internal/domain"
	"dupexport/internal/eventbus"
	"dupexport/internal/submit"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// repositoriesMsg carries the repository list
type repositoriesMsg struct {
	repos []domain.Repository
	err   error
}

// catalogMsg carries the result of a catalog load
type catalogMsg struct {
	repoID  string
	catalog domain.Catalog
	err     error
}

// exportMsg carries the result of a submission
type exportMsg struct {
	result submit.Result
	path   string // where the artifact was saved
	err    error
}

// previewPagerMsg contains the result of the preview pager command
type previewPagerMsg struct {
	err error
}

// clearStatusMsg clears a transient status message
type clearStatusMsg struct {
	seq int
}

// pauseRenderingMsg signals to pause Bubble Tea rendering
type pauseRenderingMsg struct{}

// resumeRenderingMsg signals to resume Bubble Tea rendering
type resumeRenderingMsg struct{}
