// Package workspace ties the active repository to its catalog, selection and
// view. Everything except the fetches runs on the caller's goroutine.
package workspace

import (
	"context"
	"log/slog"

	"dupexport/internal/catalog"
	"dupexport/internal/domain"
	"dupexport/internal/eventbus"
	"dupexport/internal/export"
	"dupexport/internal/selection"
	"dupexport/internal/submit"
	"dupexport/internal/view"
)

// Remote is the part of the export service the workspace reads from
type Remote interface {
	catalog.Fetcher
	ListRepositories(ctx context.Context) ([]domain.Repository, error)
}

// Workspace is the editing session of one operator
type Workspace struct {
	remote   Remote
	fallback []domain.Repository
	bus      eventbus.EventBus

	cache *catalog.Cache
	store *selection.Store
	view  *view.Projector

	repos  []domain.Repository
	active string
	loaded bool
}

// New creates a workspace. fallback is offered when the service cannot list
// its repositories.
func New(remote Remote, fallback []domain.Repository, pageSize int, bus eventbus.EventBus) *Workspace {
	bus = eventbus.OrNull(bus)
	return &Workspace{
		remote:   remote,
		fallback: fallback,
		bus:      bus,
		cache:    catalog.NewCache(remote, bus),
		store:    selection.NewStore(bus),
		view:     view.NewProjector(pageSize, bus),
	}
}

// Store returns the selection store
func (w *Workspace) Store() *selection.Store { return w.store }

// View returns the view projector
func (w *Workspace) View() *view.Projector { return w.view }

// Repositories returns the known repositories
func (w *Workspace) Repositories() []domain.Repository { return w.repos }

// ActiveRepository returns the id of the active repository, or ""
func (w *Workspace) ActiveRepository() string { return w.active }

// Loaded reports whether the active repository's catalog is in place
func (w *Workspace) Loaded() bool { return w.loaded }

// Catalog returns the loaded catalog of the active repository, or nil while
// none is in place. It must be treated as read-only.
func (w *Workspace) Catalog() domain.Catalog {
	c, repoID := w.cache.Current()
	if !w.loaded || repoID != w.active {
		return nil
	}
	return c
}

// FetchRepositories lists the service's repositories. When the call fails and
// a fallback list is configured, the fallback is returned with a nil error.
func (w *Workspace) FetchRepositories(ctx context.Context) ([]domain.Repository, error) {
	repos, err := w.remote.ListRepositories(ctx)
	if err != nil {
		if len(w.fallback) == 0 {
			return nil, err
		}
		slog.Warn("listing repositories failed, using configured list", "error", err, "count", len(w.fallback))
		return w.fallback, nil
	}
	return repos, nil
}

// SetRepositories records the repository list
func (w *Workspace) SetRepositories(repos []domain.Repository) {
	w.repos = repos
	w.bus.Publish(domain.RepositoriesLoadedEvent{Count: len(repos)})
}

// SelectRepository makes id the active repository. The previous catalog and
// every selection are discarded immediately; the returned ticket must be
// passed to FetchCatalog. Selecting "" leaves no repository active and
// returns ok=false.
func (w *Workspace) SelectRepository(id string) (ticket catalog.Ticket, ok bool) {
	if id == "" {
		w.Clear()
		return 0, false
	}

	w.active = id
	w.loaded = false
	ticket = w.cache.Begin()
	w.discard()
	w.bus.Publish(domain.RepositorySelectedEvent{ID: id})
	return ticket, true
}

// Reload discards the selection and starts a fresh catalog load of the
// active repository.
func (w *Workspace) Reload() (catalog.Ticket, bool) {
	return w.SelectRepository(w.active)
}

// FetchCatalog loads a catalog for a ticket from SelectRepository. It is safe
// to call from another goroutine; the result must be handed to ApplyCatalog.
func (w *Workspace) FetchCatalog(ctx context.Context, ticket catalog.Ticket, repoID string) (domain.Catalog, error) {
	return w.cache.LoadWith(ctx, ticket, repoID)
}

// ApplyCatalog installs a loaded catalog. Results for a repository that is no
// longer active are dropped and ApplyCatalog returns false.
func (w *Workspace) ApplyCatalog(repoID string, c domain.Catalog) bool {
	if repoID != w.active {
		slog.Debug("workspace: dropping catalog of inactive repository", "repo_id", repoID, "active", w.active)
		return false
	}
	w.store.Initialize(c)
	w.view.SetCatalog(c)
	w.loaded = true
	return true
}

// Open selects a repository and loads its catalog on the calling goroutine
func (w *Workspace) Open(ctx context.Context, id string) error {
	ticket, ok := w.SelectRepository(id)
	if !ok {
		return export.ErrNoRepositorySelected
	}
	c, err := w.FetchCatalog(ctx, ticket, id)
	if err != nil {
		return err
	}
	w.ApplyCatalog(id, c)
	return nil
}

// Reset empties every selection and returns the view to its initial state
// while keeping the active repository and its catalog.
func (w *Workspace) Reset() {
	w.store.Reset()
	w.view.ApplyFilter("")
	w.view.SetActiveClass("")
}

// Clear leaves no repository active
func (w *Workspace) Clear() {
	w.active = ""
	w.loaded = false
	w.cache.Clear()
	w.discard()
	w.bus.Publish(domain.RepositorySelectedEvent{})
}

// Input bundles the operator's name and prefix with the active repository
func (w *Workspace) Input(name, prefix string) submit.Input {
	return submit.Input{RepositoryID: w.active, Name: name, Prefix: prefix}
}

// BuildRequest assembles the export request for the current selection
func (w *Workspace) BuildRequest(name, prefix string) (domain.ExportRequest, error) {
	return export.Build(w.active, name, prefix, w.store)
}

func (w *Workspace) discard() {
	w.store.Initialize(nil)
	w.view.SetCatalog(nil)
}
