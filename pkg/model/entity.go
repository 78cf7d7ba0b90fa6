package model

import (
	"cmp"
	"slices"
)

// Entity is the closed sum type of context metadata entities.
//
// The set of implementations is sealed to this package. Any function which needs
// to treat each kind differently goes through a Visitor, so that adding a kind
// breaks the build of every visitor until it handles the new kind.
type Entity interface {
	Kind() Kind
	Accept(Visitor)

	isEntity()
}

// Visitor dispatches over the closed set of entity kinds
type Visitor interface {
	VisitTable(TableContext)
	VisitColumn(ColumnContext)
	VisitMetric(Metric)
	VisitConcept(Concept)
}

// Identified is an entity with a typed identity key.
//
// Identity keys are unique within a kind.
type Identified[K comparable] interface {
	Entity
	Identity() K
}

// TableKey identifies a table context
type TableKey struct {
	ConnectionID string
	Table        string
}

func (k TableKey) String() string { return k.ConnectionID + "/" + k.Table }

// Compare orders table keys
func (k TableKey) Compare(o TableKey) int {
	return cmp.Or(cmp.Compare(k.ConnectionID, o.ConnectionID), cmp.Compare(k.Table, o.Table))
}

// ColumnKey identifies a column context
type ColumnKey struct {
	ConnectionID string
	Table        string
	Column       string
}

func (k ColumnKey) String() string { return k.ConnectionID + "/" + k.Table + "." + k.Column }

// Compare orders column keys
func (k ColumnKey) Compare(o ColumnKey) int {
	return cmp.Or(
		cmp.Compare(k.ConnectionID, o.ConnectionID),
		cmp.Compare(k.Table, o.Table),
		cmp.Compare(k.Column, o.Column),
	)
}

// MetricKey identifies a metric
type MetricKey string

func (k MetricKey) String() string { return string(k) }

// Compare orders metric keys
func (k MetricKey) Compare(o MetricKey) int { return cmp.Compare(k, o) }

// ConceptKey identifies a concept
type ConceptKey string

func (k ConceptKey) String() string { return string(k) }

// Compare orders concept keys
func (k ConceptKey) Compare(o ConceptKey) int { return cmp.Compare(k, o) }

// TableContext describes a table in some warehouse connection
type TableContext struct {
	ConnectionID string  `json:"connectionId" yaml:"connectionId" validate:"required"`
	Table        string  `json:"tableName" yaml:"tableName" validate:"required"` // fully qualified table name
	Description  *string `json:"description" yaml:"description"`
}

// ColumnContext describes a column of a table in some warehouse connection
type ColumnContext struct {
	ConnectionID  string   `json:"connectionId" yaml:"connectionId" validate:"required"`
	Table         string   `json:"tableName" yaml:"tableName" validate:"required"`
	Column        string   `json:"columnName" yaml:"columnName" validate:"required"`
	Description   *string  `json:"description" yaml:"description"`
	ExampleValues []string `json:"exampleValues" yaml:"exampleValues"`
}

// Metric describes a business metric
type Metric struct {
	ID             string   `json:"id" yaml:"id" validate:"required"`
	Name           string   `json:"name" yaml:"name" validate:"required"`
	Description    *string  `json:"description" yaml:"description"`
	Formula        *string  `json:"formula" yaml:"formula"`
	Unit           *string  `json:"unit" yaml:"unit"`
	Tags           []string `json:"tags" yaml:"tags"`
	ExampleQueries []string `json:"exampleQueries" yaml:"exampleQueries"`
}

// Concept describes a business concept
type Concept struct {
	ID            string   `json:"id" yaml:"id" validate:"required"`
	Name          string   `json:"name" yaml:"name" validate:"required"`
	Description   *string  `json:"description" yaml:"description"`
	Synonyms      []string `json:"synonyms" yaml:"synonyms"`
	Tags          []string `json:"tags" yaml:"tags"`
	ExampleValues []string `json:"exampleValues" yaml:"exampleValues"`
}

var (
	_ Identified[TableKey]   = TableContext{}
	_ Identified[ColumnKey]  = ColumnContext{}
	_ Identified[MetricKey]  = Metric{}
	_ Identified[ConceptKey] = Concept{}
)

func (TableContext) isEntity()  {}
func (ColumnContext) isEntity() {}
func (Metric) isEntity()        {}
func (Concept) isEntity()       {}

func (TableContext) Kind() Kind  { return KindTable }
func (ColumnContext) Kind() Kind { return KindColumn }
func (Metric) Kind() Kind        { return KindMetric }
func (Concept) Kind() Kind       { return KindConcept }

func (t TableContext) Accept(v Visitor)  { v.VisitTable(t) }
func (c ColumnContext) Accept(v Visitor) { v.VisitColumn(c) }
func (m Metric) Accept(v Visitor)        { v.VisitMetric(m) }
func (c Concept) Accept(v Visitor)       { v.VisitConcept(c) }

// Identity of a table context: (connection, table)
func (t TableContext) Identity() TableKey {
	return TableKey{ConnectionID: t.ConnectionID, Table: t.Table}
}

// Identity of a column context: (connection, table, column)
func (c ColumnContext) Identity() ColumnKey {
	return ColumnKey{ConnectionID: c.ConnectionID, Table: c.Table, Column: c.Column}
}

// Identity of a metric: its globally unique id
func (m Metric) Identity() MetricKey { return MetricKey(m.ID) }

// Identity of a concept: its globally unique id
func (c Concept) Identity() ConceptKey { return ConceptKey(c.ID) }

// Equal compares all fields. Nil and empty lists are equal.
func (t TableContext) Equal(o TableContext) bool {
	return t.ConnectionID == o.ConnectionID &&
		t.Table == o.Table &&
		equalOptional(t.Description, o.Description)
}

// Equal compares all fields. Nil and empty lists are equal.
func (c ColumnContext) Equal(o ColumnContext) bool {
	return c.ConnectionID == o.ConnectionID &&
		c.Table == o.Table &&
		c.Column == o.Column &&
		equalOptional(c.Description, o.Description) &&
		slices.Equal(c.ExampleValues, o.ExampleValues)
}

// Equal compares all fields. Nil and empty lists are equal.
func (m Metric) Equal(o Metric) bool {
	return m.ID == o.ID &&
		m.Name == o.Name &&
		equalOptional(m.Description, o.Description) &&
		equalOptional(m.Formula, o.Formula) &&
		equalOptional(m.Unit, o.Unit) &&
		slices.Equal(m.Tags, o.Tags) &&
		slices.Equal(m.ExampleQueries, o.ExampleQueries)
}

// Equal compares all fields. Nil and empty lists are equal.
func (c Concept) Equal(o Concept) bool {
	return c.ID == o.ID &&
		c.Name == o.Name &&
		equalOptional(c.Description, o.Description) &&
		slices.Equal(c.Synonyms, o.Synonyms) &&
		slices.Equal(c.Tags, o.Tags) &&
		slices.Equal(c.ExampleValues, o.ExampleValues)
}

// Clone returns a copy which shares no memory with the receiver
func (t TableContext) Clone() TableContext {
	t.Description = cloneOptional(t.Description)
	return t
}

// Clone returns a copy which shares no memory with the receiver
func (c ColumnContext) Clone() ColumnContext {
	c.Description = cloneOptional(c.Description)
	c.ExampleValues = slices.Clone(c.ExampleValues)
	return c
}

// Clone returns a copy which shares no memory with the receiver
func (m Metric) Clone() Metric {
	m.Description = cloneOptional(m.Description)
	m.Formula = cloneOptional(m.Formula)
	m.Unit = cloneOptional(m.Unit)
	m.Tags = slices.Clone(m.Tags)
	m.ExampleQueries = slices.Clone(m.ExampleQueries)
	return m
}

// Clone returns a copy which shares no memory with the receiver
func (c Concept) Clone() Concept {
	c.Description = cloneOptional(c.Description)
	c.Synonyms = slices.Clone(c.Synonyms)
	c.Tags = slices.Clone(c.Tags)
	c.ExampleValues = slices.Clone(c.ExampleValues)
	return c
}

// KeyOf renders the identity key of any entity
func KeyOf(e Entity) string {
	var k keyOf
	e.Accept(&k)
	return k.key
}

type keyOf struct {
	key string
}

func (k *keyOf) VisitTable(t TableContext)   { k.key = t.Identity().String() }
func (k *keyOf) VisitColumn(c ColumnContext) { k.key = c.Identity().String() }
func (k *keyOf) VisitMetric(m Metric)        { k.key = m.Identity().String() }
func (k *keyOf) VisitConcept(c Concept)      { k.key = c.Identity().String() }

// String returns a pointer to s, for nullable fields
func String(s string) *string {
	return &s
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
