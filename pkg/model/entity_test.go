package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kindCounter map[Kind]int

func (c kindCounter) VisitTable(TableContext)   { c[KindTable]++ }
func (c kindCounter) VisitColumn(ColumnContext) { c[KindColumn]++ }
func (c kindCounter) VisitMetric(Metric)        { c[KindMetric]++ }
func (c kindCounter) VisitConcept(Concept)      { c[KindConcept]++ }

func fixtureContent() Content {
	return Content{
		Table: []TableContext{
			{ConnectionID: "ds2", Table: "public.t2"},
			{ConnectionID: "ds1", Table: "public.t1", Description: String("orders")},
		},
		Column: []ColumnContext{
			{ConnectionID: "ds1", Table: "public.t1", Column: "id", ExampleValues: []string{"1", "2"}},
		},
		Metric: []Metric{
			{ID: "m-2", Name: "revenue", Formula: String("sum(amount)"), Tags: []string{"finance"}},
			{ID: "m-1", Name: "orders", Unit: String("count")},
		},
		Concept: []Concept{
			{ID: "c-1", Name: "customer", Synonyms: []string{"client", "buyer"}},
		},
	}
}

func TestIdentity(t *testing.T) {
	c := fixtureContent()

	assert.Equal(t, TableKey{ConnectionID: "ds1", Table: "public.t1"}, c.Table[1].Identity())
	assert.Equal(t, ColumnKey{ConnectionID: "ds1", Table: "public.t1", Column: "id"}, c.Column[0].Identity())
	assert.Equal(t, MetricKey("m-2"), c.Metric[0].Identity())
	assert.Equal(t, ConceptKey("c-1"), c.Concept[0].Identity())

	// identity ignores non-key fields
	other := c.Table[1]
	other.Description = String("something else")
	assert.Equal(t, c.Table[1].Identity(), other.Identity())

	assert.Equal(t, "ds1/public.t1", KeyOf(c.Table[1]))
	assert.Equal(t, "ds1/public.t1.id", KeyOf(c.Column[0]))
	assert.Equal(t, "m-2", KeyOf(c.Metric[0]))
	assert.Equal(t, "c-1", KeyOf(c.Concept[0]))
}

func TestVisitorCoversAllKinds(t *testing.T) {
	counter := make(kindCounter)
	for _, e := range fixtureContent().Entities() {
		e.Accept(counter)
	}
	assert.Equal(t, kindCounter{KindTable: 2, KindColumn: 1, KindMetric: 2, KindConcept: 1}, counter)

	for _, k := range AllKinds() {
		assert.True(t, k.IsValid())
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseKind("dashboard")
	require.Error(t, err)
}

func TestEqual(t *testing.T) {
	m := Metric{ID: "m", Name: "n", Description: String("d"), Tags: []string{}}

	assert.True(t, m.Equal(Metric{ID: "m", Name: "n", Description: String("d")}), "nil and empty lists compare equal")
	assert.False(t, m.Equal(Metric{ID: "m", Name: "n"}), "nil description differs from a set one")
	assert.False(t, m.Equal(Metric{ID: "m", Name: "n", Description: String("e")}))
	assert.False(t, m.Equal(Metric{ID: "m", Name: "n", Description: String("d"), Tags: []string{"x"}}))

	col := ColumnContext{ConnectionID: "a", Table: "b", Column: "c", ExampleValues: []string{"1", "2"}}
	assert.False(t, col.Equal(ColumnContext{ConnectionID: "a", Table: "b", Column: "c", ExampleValues: []string{"2", "1"}}),
		"example values are ordered")

	concept := Concept{ID: "c", Name: "n", Synonyms: []string{"s"}}
	assert.True(t, concept.Equal(concept.Clone()))
	assert.True(t, TableContext{ConnectionID: "a", Table: "b"}.Equal(TableContext{ConnectionID: "a", Table: "b"}))
}

func TestClone(t *testing.T) {
	orig := Concept{ID: "c", Name: "n", Description: String("d"), Synonyms: []string{"s"}}
	cl := orig.Clone()
	cl.Synonyms[0] = "changed"
	*cl.Description = "changed"

	assert.Equal(t, "s", orig.Synonyms[0])
	assert.Equal(t, "d", *orig.Description)
}

func TestContentSorted(t *testing.T) {
	c := fixtureContent()
	sorted := c.Sorted()

	require.Len(t, sorted.Table, 2)
	assert.Equal(t, "ds1", sorted.Table[0].ConnectionID)
	assert.Equal(t, MetricKey("m-1"), sorted.Metric[0].Identity())

	// deep copy
	sorted.Column[0].ExampleValues[0] = "changed"
	assert.Equal(t, "1", c.Column[0].ExampleValues[0])

	empty := Content{}.Sorted()
	assert.NotNil(t, empty.Table)
	assert.NotNil(t, empty.Concept)
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, 6, c.Count().Total())
}

func TestContentValidate(t *testing.T) {
	require.NoError(t, fixtureContent().Validate())
	require.NoError(t, Content{}.Validate())

	missing := fixtureContent()
	missing.Metric[0].Name = ""
	err := missing.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")

	dup := fixtureContent()
	dup.Table = append(dup.Table, TableContext{ConnectionID: "ds1", Table: "public.t1", Description: String("other")})
	err = dup.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate table key")

	require.Error(t, ValidateEntity(ColumnContext{ConnectionID: "ds1", Table: "t"}))
	require.NoError(t, ValidateEntity(Concept{ID: "c", Name: "n"}))
}

func TestValidateBranchName(t *testing.T) {
	for _, name := range []string{"main", "job-42", "feature/x", "v1.2_rc"} {
		assert.NoErrorf(t, ValidateBranchName(name), "name %q", name)
	}
	for _, name := range []string{"", " main", "-x", "a b", "tab\tname"} {
		assert.Errorf(t, ValidateBranchName(name), "name %q", name)
	}
}

func TestRootRevision(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	root := NewRootRevision(now)

	assert.False(t, root.HasParent())
	assert.Equal(t, 0, root.Depth)
	assert.True(t, root.Content.IsEmpty())
	assert.NotEmpty(t, root.ID)
	assert.NotEqual(t, root.ID, NewRootRevision(now).ID)
}
