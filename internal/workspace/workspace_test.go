package workspace

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupexport/internal/catalog"
	"dupexport/internal/domain"
	"dupexport/internal/export"
)

type fakeRemote struct {
	mu       sync.Mutex
	repos    []domain.Repository
	listErr  error
	catalogs map[string]domain.Catalog
	fetchErr error
}

func (f *fakeRemote) ListRepositories(ctx context.Context) ([]domain.Repository, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.repos, nil
}

func (f *fakeRemote) FetchCatalog(ctx context.Context, repoID string) (domain.Catalog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.catalogs[repoID], nil
}

func newRemote() *fakeRemote {
	return &fakeRemote{
		repos: []domain.Repository{{ID: "r1", DisplayName: "One"}, {ID: "r2", DisplayName: "Two"}},
		catalogs: map[string]domain.Catalog{
			"r1": {"Person": {Name: "Person", Fields: map[string]domain.Field{"Name": {Name: "Name"}}}},
			"r2": {"Car": {Name: "Car", Fields: map[string]domain.Field{"Plate": {Name: "Plate"}}}},
		},
	}
}

func TestOpenLoadsCatalog(t *testing.T) {
	w := New(newRemote(), nil, 30, nil)

	require.NoError(t, w.Open(context.Background(), "r1"))

	assert.Equal(t, "r1", w.ActiveRepository())
	assert.True(t, w.Loaded())
	assert.True(t, w.Store().HasRecord("Person"))
	assert.Equal(t, []string{"Person"}, w.View().Current())
}

func TestSwitchingRepositoryDiscardsSelection(t *testing.T) {
	w := New(newRemote(), nil, 30, nil)
	require.NoError(t, w.Open(context.Background(), "r1"))
	w.Store().ToggleField("Person", "Name", true)
	require.True(t, w.Store().HasAnySelection())

	ticket, ok := w.SelectRepository("r2")
	require.True(t, ok)
	assert.False(t, w.Store().HasAnySelection())
	assert.Zero(t, w.Store().Len())
	assert.False(t, w.Loaded())

	c, err := w.FetchCatalog(context.Background(), ticket, "r2")
	require.NoError(t, err)
	require.True(t, w.ApplyCatalog("r2", c))

	assert.True(t, w.Store().HasRecord("Car"))
	assert.False(t, w.Store().HasRecord("Person"))
}

func TestStaleCatalogIsNotApplied(t *testing.T) {
	w := New(newRemote(), nil, 30, nil)
	ctx := context.Background()

	first, _ := w.SelectRepository("r1")
	second, _ := w.SelectRepository("r2")

	_, err := w.FetchCatalog(ctx, first, "r1")
	assert.ErrorIs(t, err, catalog.ErrSuperseded)

	c, err := w.FetchCatalog(ctx, second, "r2")
	require.NoError(t, err)
	assert.True(t, w.ApplyCatalog("r2", c))

	assert.False(t, w.ApplyCatalog("r1", domain.Catalog{"Ghost": {Name: "Ghost"}}))
	assert.False(t, w.Store().HasRecord("Ghost"))
}

func TestFailedLoadKeepsRepositoryActive(t *testing.T) {
	remote := newRemote()
	remote.fetchErr = errors.New("boom")
	w := New(remote, nil, 30, nil)

	err := w.Open(context.Background(), "r1")
	require.Error(t, err)
	assert.Equal(t, "r1", w.ActiveRepository())
	assert.False(t, w.Loaded())

	remote.fetchErr = nil
	ticket, ok := w.Reload()
	require.True(t, ok)
	c, err := w.FetchCatalog(context.Background(), ticket, "r1")
	require.NoError(t, err)
	assert.True(t, w.ApplyCatalog("r1", c))
}

func TestResetKeepsCatalog(t *testing.T) {
	w := New(newRemote(), nil, 30, nil)
	require.NoError(t, w.Open(context.Background(), "r1"))
	w.Store().ToggleField("Person", "Name", true)
	w.View().ApplyFilter("zzz")
	w.View().SetActiveClass("Person")

	w.Reset()

	assert.False(t, w.Store().HasAnySelection())
	assert.True(t, w.Store().HasRecord("Person"))
	assert.Equal(t, "", w.View().State().SearchTerm)
	assert.Empty(t, w.View().ActiveClass())
	assert.Equal(t, "r1", w.ActiveRepository())
}

func TestClearLeavesNoRepository(t *testing.T) {
	w := New(newRemote(), nil, 30, nil)
	require.NoError(t, w.Open(context.Background(), "r1"))

	_, ok := w.SelectRepository("")
	assert.False(t, ok)
	assert.Empty(t, w.ActiveRepository())

	_, err := w.BuildRequest("ext", "")
	assert.ErrorIs(t, err, export.ErrNoRepositorySelected)
}

func TestBuildRequestUsesActiveRepository(t *testing.T) {
	w := New(newRemote(), nil, 30, nil)
	require.NoError(t, w.Open(context.Background(), "r1"))
	w.Store().ToggleField("Person", "Name", true)

	req, err := w.BuildRequest("ext", "")
	require.NoError(t, err)
	assert.Equal(t, "r1", req.RepositoryID)
	assert.Equal(t, "r1", w.Input("ext", "").RepositoryID)
}

func TestFetchRepositoriesFallback(t *testing.T) {
	remote := newRemote()
	remote.listErr = errors.New("offline")
	fallback := []domain.Repository{{ID: "local", DisplayName: "Local"}}

	w := New(remote, fallback, 30, nil)
	repos, err := w.FetchRepositories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fallback, repos)

	bare := New(remote, nil, 30, nil)
	_, err = bare.FetchRepositories(context.Background())
	assert.Error(t, err)
}

func TestCatalogFollowsActiveRepository(t *testing.T) {
	w := New(newRemote(), nil, 30, nil)
	assert.Nil(t, w.Catalog())

	require.NoError(t, w.Open(context.Background(), "r1"))
	c := w.Catalog()
	require.Len(t, c, 1)
	assert.Contains(t, c, "Person")

	_, ok := w.SelectRepository("r2")
	require.True(t, ok)
	assert.Nil(t, w.Catalog(), "catalog of the previous repository must not leak")

	w.Clear()
	assert.Nil(t, w.Catalog())
}
