package selection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupexport/internal/domain"
	"dupexport/internal/eventbus"
)

func makeCatalog(shape map[string][]string) domain.Catalog {
	c := make(domain.Catalog, len(shape))
	for class, fields := range shape {
		fs := make(map[string]domain.Field, len(fields))
		for _, f := range fields {
			fs[f] = domain.Field{Name: f}
		}
		c[class] = domain.Class{Name: class, Fields: fs}
	}
	return c
}

func sampleCatalog() domain.Catalog {
	return makeCatalog(map[string][]string{
		"Person": {"Name", "Age"},
		"Car":    {"Plate"},
		"actor":  {"role", "Name"},
	})
}

func TestInitializeCreatesEmptyRecords(t *testing.T) {
	s := NewStore(nil)
	cat := sampleCatalog()
	s.Initialize(cat)

	assert.Equal(t, len(cat), s.Len())
	for name := range cat {
		assert.True(t, s.HasRecord(name))
		assert.Zero(t, s.FieldCount(name))
	}
	assert.False(t, s.HasAnySelection())
	assert.Empty(t, s.SelectedSummary())
}

func TestInitializeDiscardsPriorRecords(t *testing.T) {
	s := NewStore(nil)
	s.Initialize(sampleCatalog())
	s.ToggleField("Person", "Name", true)

	s.Initialize(makeCatalog(map[string][]string{"Ship": {"Hull"}}))

	assert.Equal(t, 1, s.Len())
	assert.False(t, s.HasRecord("Person"))
	assert.False(t, s.HasAnySelection())
}

func TestToggleRoundTrip(t *testing.T) {
	s := NewStore(nil)
	s.Initialize(sampleCatalog())
	s.ToggleField("Person", "Age", true)
	before := s.SelectedFields("Person")

	s.ToggleField("Person", "Name", true)
	s.ToggleField("Person", "Name", false)

	assert.Equal(t, before, s.SelectedFields("Person"))
}

func TestToggleIsIdempotent(t *testing.T) {
	s := NewStore(nil)
	s.Initialize(sampleCatalog())

	s.ToggleField("Person", "Name", true)
	s.ToggleField("Person", "Name", true)
	assert.Equal(t, 1, s.FieldCount("Person"))

	s.ToggleField("Person", "Name", false)
	s.ToggleField("Person", "Name", false)
	assert.Zero(t, s.FieldCount("Person"))
}

func TestToggleIgnoresUnknownClassAndField(t *testing.T) {
	s := NewStore(nil)
	s.Initialize(sampleCatalog())

	s.ToggleField("Ghost", "Name", true)
	s.ToggleField("Person", "Plate", true)

	assert.False(t, s.HasRecord("Ghost"))
	assert.False(t, s.IsSelected("Person", "Plate"))
	assert.False(t, s.HasAnySelection())
}

func TestSelectAllThenDeselectAll(t *testing.T) {
	s := NewStore(nil)
	s.Initialize(sampleCatalog())

	s.SelectAllFields("Person")
	assert.Equal(t, []string{"Age", "Name"}, s.SelectedFields("Person"))
	assert.True(t, s.HasAnySelection())

	s.DeselectAllFields("Person")
	assert.Empty(t, s.SelectedFields("Person"))
	assert.False(t, s.HasAnySelection())
}

func TestClearClass(t *testing.T) {
	s := NewStore(nil)
	s.Initialize(sampleCatalog())
	s.SelectAllFields("Car")
	s.ToggleField("Person", "Name", true)

	s.ClearClass("Car")

	assert.True(t, s.HasRecord("Car"))
	assert.Zero(t, s.FieldCount("Car"))
	assert.Equal(t, []domain.ClassSummary{{ClassName: "Person", FieldCount: 1}}, s.SelectedSummary())
}

func TestSelectedSummaryOrder(t *testing.T) {
	s := NewStore(nil)
	s.Initialize(sampleCatalog())
	s.SelectAllFields("Person")
	s.ToggleField("actor", "role", true)
	s.ToggleField("Car", "Plate", true)

	assert.Equal(t, []domain.ClassSummary{
		{ClassName: "actor", FieldCount: 1},
		{ClassName: "Car", FieldCount: 1},
		{ClassName: "Person", FieldCount: 2},
	}, s.SelectedSummary())
}

func TestResetKeepsCatalog(t *testing.T) {
	s := NewStore(nil)
	s.Initialize(sampleCatalog())
	s.SelectAllFields("Person")

	s.Reset()

	assert.Equal(t, 3, s.Len())
	assert.False(t, s.HasAnySelection())
	s.ToggleField("Car", "Plate", true)
	assert.True(t, s.IsSelected("Car", "Plate"))
}

func TestPublishesSelectionChanged(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()

	events := make(chan domain.SelectionChangedEvent, 4)
	bus.Subscribe(eventbus.EventSelectionChanged, func(e eventbus.DomainEvent) {
		events <- e.(domain.SelectionChangedEvent)
	})

	s := NewStore(bus)
	s.Initialize(sampleCatalog())
	s.ToggleField("Person", "Name", true)

	select {
	case ev := <-events:
		assert.Equal(t, "Person", ev.ClassName)
		assert.Equal(t, 1, ev.FieldCount)
		assert.Equal(t, []string{"Name"}, ev.Added)
	case <-time.After(time.Second):
		require.Fail(t, "no SelectionChangedEvent received")
	}
}
