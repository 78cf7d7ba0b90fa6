package core

import (
	"testing"

	"github.com/oneconcern/ctxmon/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureContent() model.Content {
	return model.Content{
		Table: []model.TableContext{
			{ConnectionID: "ds1", Table: "public.t1", Description: model.String("orders")},
			{ConnectionID: "ds1", Table: "public.t2"},
		},
		Column: []model.ColumnContext{
			{ConnectionID: "ds1", Table: "public.t1", Column: "id", ExampleValues: []string{"1", "2"}},
		},
		Metric: []model.Metric{
			{ID: "m-1", Name: "orders", Unit: model.String("count")},
		},
		Concept: []model.Concept{
			{ID: "c-1", Name: "customer", Synonyms: []string{"client"}},
			{ID: "c-2", Name: "supplier"},
		},
	}
}

func TestCollection(t *testing.T) {
	wc := NewWorkingCopy(model.Content{})
	tables := wc.Tables()
	require.Equal(t, 0, tables.Len())

	key := model.TableKey{ConnectionID: "ds1", Table: "public.t1"}
	_, ok := tables.Get(key)
	require.False(t, ok)

	tables.Upsert(model.TableContext{ConnectionID: "ds1", Table: "public.t1", Description: model.String("d")})
	tables.Upsert(model.TableContext{ConnectionID: "ds0", Table: "public.t9"})
	require.Equal(t, 2, tables.Len())

	got, ok := tables.Get(key)
	require.True(t, ok)
	assert.Equal(t, "d", *got.Description)

	// upsert replaces the whole entity
	tables.Upsert(model.TableContext{ConnectionID: "ds1", Table: "public.t1"})
	require.Equal(t, 2, tables.Len())
	got, _ = tables.Get(key)
	assert.Nil(t, got.Description)

	list := tables.List()
	require.Len(t, list, 2)
	assert.Equal(t, "ds0", list[0].ConnectionID, "list is sorted by key")

	tables.Remove(key)
	tables.Remove(key)
	assert.Equal(t, 1, tables.Len())
}

func TestCollectionCopiesEntities(t *testing.T) {
	concept := model.Concept{ID: "c", Name: "n", Synonyms: []string{"s"}}
	wc := NewWorkingCopy(model.Content{})
	wc.Concepts().Upsert(concept)

	concept.Synonyms[0] = "changed by caller"
	got, _ := wc.Concepts().Get("c")
	assert.Equal(t, "s", got.Synonyms[0])

	got.Synonyms[0] = "changed by reader"
	again, _ := wc.Concepts().Get("c")
	assert.Equal(t, "s", again.Synonyms[0])
}

func TestWorkingCopyDynamic(t *testing.T) {
	wc := NewWorkingCopy(model.Content{})
	for _, e := range fixtureContent().Entities() {
		wc.Upsert(e)
	}
	assert.Equal(t, fixtureContent().Count(), wc.Count())
	assert.Equal(t, fixtureContent().Sorted(), wc.Snapshot())

	// removal only looks at the identity
	wc.Remove(model.Metric{ID: "m-1"})
	wc.Remove(model.ColumnContext{ConnectionID: "ds1", Table: "public.t1", Column: "id"})
	assert.Equal(t, 0, wc.Metrics().Len())
	assert.Equal(t, 0, wc.Columns().Len())
	assert.Equal(t, 2, wc.Tables().Len())
}

func TestDiff(t *testing.T) {
	base := NewWorkingCopy(fixtureContent())
	other := NewWorkingCopy(fixtureContent())

	other.Tables().Remove(model.TableKey{ConnectionID: "ds1", Table: "public.t2"})
	other.Tables().Upsert(model.TableContext{ConnectionID: "ds2", Table: "public.t3"})
	other.Metrics().Upsert(model.Metric{ID: "m-1", Name: "orders", Unit: model.String("items")})
	other.Concepts().Upsert(model.Concept{ID: "c-0", Name: "product"})

	d := base.Diff(other)
	require.False(t, d.IsEmpty())

	require.Len(t, d.Table.Added, 1)
	assert.Equal(t, "ds2", d.Table.Added[0].ConnectionID)
	require.Len(t, d.Table.Removed, 1)
	assert.Equal(t, "public.t2", d.Table.Removed[0].Table)
	assert.Empty(t, d.Table.Modified)

	assert.True(t, d.Column.IsEmpty())
	assert.NotNil(t, d.Column.Added)

	require.Len(t, d.Metric.Modified, 1)
	assert.Equal(t, "count", *d.Metric.Modified[0].Before.Unit)
	assert.Equal(t, "items", *d.Metric.Modified[0].After.Unit)

	require.Len(t, d.Concept.Added, 1)

	assert.Equal(t, map[model.Kind]DiffCounts{
		model.KindTable:   {Added: 1, Removed: 1},
		model.KindColumn:  {},
		model.KindMetric:  {Modified: 1},
		model.KindConcept: {Added: 1},
	}, d.Summary())

	entries := d.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, DiffEntryTypeAdd, entries[0].Type)
	assert.Equal(t, "ds2/public.t3", entries[0].Key)
	assert.Nil(t, entries[0].Existing)
	assert.Equal(t, DiffEntryTypeDel, entries[1].Type)
	assert.Nil(t, entries[1].Additional)
	assert.Equal(t, "U", entries[2].Type.String())
	assert.Equal(t, model.KindMetric, entries[2].Kind)
	assert.Equal(t, model.KindConcept, entries[3].Kind)
}

func TestDiffLaws(t *testing.T) {
	x := NewWorkingCopy(fixtureContent())
	y := NewWorkingCopy(fixtureContent())
	y.Upsert(model.ColumnContext{ConnectionID: "ds1", Table: "public.t1", Column: "amount"})
	y.Remove(model.Concept{ID: "c-2"})
	y.Upsert(model.TableContext{ConnectionID: "ds1", Table: "public.t1", Description: model.String("changed")})

	t.Run("diff with self is empty", func(t *testing.T) {
		assert.True(t, x.Diff(x).IsEmpty())
		assert.True(t, y.Diff(y).IsEmpty())
		assert.True(t, x.Diff(NewWorkingCopy(fixtureContent())).IsEmpty())
	})

	t.Run("added and removed are symmetric", func(t *testing.T) {
		xy, yx := x.Diff(y), y.Diff(x)

		assert.Equal(t, xy.Table.Added, yx.Table.Removed)
		assert.Equal(t, xy.Table.Removed, yx.Table.Added)
		assert.Equal(t, xy.Column.Added, yx.Column.Removed)
		assert.Equal(t, xy.Column.Removed, yx.Column.Added)
		assert.Equal(t, xy.Metric.Added, yx.Metric.Removed)
		assert.Equal(t, xy.Concept.Added, yx.Concept.Removed)
		assert.Equal(t, xy.Concept.Removed, yx.Concept.Added)

		require.Len(t, xy.Table.Modified, 1)
		require.Len(t, yx.Table.Modified, 1)
		assert.Equal(t, xy.Table.Modified[0].Before, yx.Table.Modified[0].After)
	})

	t.Run("modified iff key on both sides with unequal fields", func(t *testing.T) {
		// nil and empty lists are equal values
		a := NewWorkingCopy(model.Content{Metric: []model.Metric{{ID: "m", Name: "n", Tags: nil}}})
		b := NewWorkingCopy(model.Content{Metric: []model.Metric{{ID: "m", Name: "n", Tags: []string{}}}})
		assert.True(t, a.Diff(b).IsEmpty())

		b.Metrics().Upsert(model.Metric{ID: "m", Name: "n", Tags: []string{"t"}})
		d := a.Diff(b)
		assert.Len(t, d.Metric.Modified, 1)
		assert.Empty(t, d.Metric.Added)
		assert.Empty(t, d.Metric.Removed)
	})
}
