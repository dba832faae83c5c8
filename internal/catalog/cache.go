// Package catalog holds the class catalog of the active repository.
//
// A catalog is only ever replaced as a whole. Loads are sequenced: when two
// loads overlap, the one started last wins and an older load that resolves
// afterwards is discarded with ErrSuperseded.
package catalog

import (
	"context"
	"errors"
	"sync"

	"dupexport/internal/domain"
	"dupexport/internal/eventbus"
	"dupexport/internal/logging"
)

// ErrSuperseded is returned by Load when a newer load started before this one
// finished.
var ErrSuperseded = errors.New("catalog load superseded by a newer request")

// Fetcher retrieves the class catalog of a repository
type Fetcher interface {
	FetchCatalog(ctx context.Context, repoID string) (domain.Catalog, error)
}

// Cache keeps the most recently loaded catalog
type Cache struct {
	fetcher Fetcher
	bus     eventbus.EventBus

	mu         sync.RWMutex
	generation uint64
	repoID     string
	catalog    domain.Catalog
}

// NewCache creates an empty cache backed by fetcher
func NewCache(fetcher Fetcher, bus eventbus.EventBus) *Cache {
	return &Cache{
		fetcher: fetcher,
		bus:     eventbus.OrNull(bus),
	}
}

// Ticket identifies one load attempt
type Ticket uint64

// Begin reserves a generation for a new load, invalidating every load begun
// before it.
func (c *Cache) Begin() Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return Ticket(c.generation)
}

// Load fetches the catalog of repoID and replaces the current one
func (c *Cache) Load(ctx context.Context, repoID string) (domain.Catalog, error) {
	return c.LoadWith(ctx, c.Begin(), repoID)
}

// LoadWith is Load with a ticket obtained earlier from Begin. Callers that
// start the fetch on another goroutine take the ticket synchronously so the
// ordering reflects when the operator asked, not when the goroutine ran.
func (c *Cache) LoadWith(ctx context.Context, ticket Ticket, repoID string) (domain.Catalog, error) {
	logger := logging.FromContext(ctx)
	fetched, err := c.fetcher.FetchCatalog(ctx, repoID)

	c.mu.Lock()
	if uint64(ticket) != c.generation {
		c.mu.Unlock()
		logger.Debug("catalog: discarding superseded load", "repo_id", repoID)
		return nil, ErrSuperseded
	}
	if err != nil {
		c.mu.Unlock()
		c.bus.Publish(domain.ErrorEvent{Message: "failed to load classes", Err: err})
		return nil, err
	}
	c.repoID = repoID
	c.catalog = fetched
	c.mu.Unlock()

	logger.Info("catalog loaded", "repo_id", repoID, "classes", len(fetched))
	c.bus.Publish(domain.CatalogLoadedEvent{RepositoryID: repoID, Classes: len(fetched)})
	return fetched, nil
}

// Current returns the loaded catalog and its repository. The catalog must be
// treated as read-only.
func (c *Cache) Current() (domain.Catalog, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.catalog, c.repoID
}

// Clear discards the catalog and invalidates any load in flight
func (c *Cache) Clear() {
	c.mu.Lock()
	c.generation++
	c.catalog = nil
	c.repoID = ""
	c.mu.Unlock()

	c.bus.Publish(domain.CatalogClearedEvent{})
}
