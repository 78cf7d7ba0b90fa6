package core

import (
	"slices"

	"github.com/oneconcern/ctxmon/pkg/model"
)

type identityKey[K any] interface {
	comparable
	Compare(K) int
	String() string
}

type entity[K comparable, E any] interface {
	model.Identified[K]
	Clone() E
	Equal(E) bool
}

// Collection holds the entities of a single kind, indexed by identity key.
//
// Entities are copied in and out: mutating a value obtained from a collection
// does not alter the collection.
type Collection[K identityKey[K], E entity[K, E]] struct {
	items map[K]E
}

func newCollection[K identityKey[K], E entity[K, E]](entities []E) *Collection[K, E] {
	c := &Collection[K, E]{items: make(map[K]E, len(entities))}
	for _, e := range entities {
		c.Upsert(e)
	}
	return c
}

// List all entities, in identity key order
func (c *Collection[K, E]) List() []E {
	result := make([]E, 0, len(c.items))
	for _, e := range c.items {
		result = append(result, e.Clone())
	}
	slices.SortFunc(result, func(a, b E) int { return a.Identity().Compare(b.Identity()) })
	return result
}

// Get an entity by key
func (c *Collection[K, E]) Get(key K) (E, bool) {
	e, ok := c.items[key]
	if !ok {
		var zero E
		return zero, false
	}
	return e.Clone(), true
}

// Upsert inserts an entity, or fully replaces the entity with the same identity
func (c *Collection[K, E]) Upsert(e E) {
	c.items[e.Identity()] = e.Clone()
}

// Remove an entity by key. Removing an absent key is a no-op.
func (c *Collection[K, E]) Remove(key K) {
	delete(c.items, key)
}

// Len is the number of entities in the collection
func (c *Collection[K, E]) Len() int {
	return len(c.items)
}

// WorkingCopy is an in-memory staging area materialized from a revision.
//
// Edits accumulate in memory until the working copy is committed.
// A WorkingCopy is not safe for concurrent use.
type WorkingCopy struct {
	base   model.RevisionID
	branch string

	tables   *Collection[model.TableKey, model.TableContext]
	columns  *Collection[model.ColumnKey, model.ColumnContext]
	metrics  *Collection[model.MetricKey, model.Metric]
	concepts *Collection[model.ConceptKey, model.Concept]
}

// NewWorkingCopy builds a working copy holding some content.
//
// When the content holds several entities with the same identity, the last one wins.
func NewWorkingCopy(content model.Content) *WorkingCopy {
	return &WorkingCopy{
		tables:   newCollection[model.TableKey](content.Table),
		columns:  newCollection[model.ColumnKey](content.Column),
		metrics:  newCollection[model.MetricKey](content.Metric),
		concepts: newCollection[model.ConceptKey](content.Concept),
	}
}

func newWorkingCopyFrom(branch string, rev *model.Revision) *WorkingCopy {
	wc := NewWorkingCopy(rev.Content)
	wc.base = rev.ID
	wc.branch = branch
	return wc
}

// Base is the revision this working copy was checked out from, if any
func (w *WorkingCopy) Base() model.RevisionID { return w.base }

// Branch is the branch this working copy was checked out from, if any
func (w *WorkingCopy) Branch() string { return w.branch }

// Tables holds the table contexts
func (w *WorkingCopy) Tables() *Collection[model.TableKey, model.TableContext] { return w.tables }

// Columns holds the column contexts
func (w *WorkingCopy) Columns() *Collection[model.ColumnKey, model.ColumnContext] { return w.columns }

// Metrics holds the metrics
func (w *WorkingCopy) Metrics() *Collection[model.MetricKey, model.Metric] { return w.metrics }

// Concepts holds the concepts
func (w *WorkingCopy) Concepts() *Collection[model.ConceptKey, model.Concept] { return w.concepts }

// Upsert an entity of any kind
func (w *WorkingCopy) Upsert(e model.Entity) {
	e.Accept(upserter{w: w})
}

// Remove the entity with the same identity as e, whatever its other fields
func (w *WorkingCopy) Remove(e model.Entity) {
	e.Accept(remover{w: w})
}

// Count entities per kind
func (w *WorkingCopy) Count() model.Counts {
	return model.Counts{
		model.KindTable:   w.tables.Len(),
		model.KindColumn:  w.columns.Len(),
		model.KindMetric:  w.metrics.Len(),
		model.KindConcept: w.concepts.Len(),
	}
}

// Snapshot the content of the working copy, in canonical order
func (w *WorkingCopy) Snapshot() model.Content {
	return model.Content{
		Table:   w.tables.List(),
		Column:  w.columns.List(),
		Metric:  w.metrics.List(),
		Concept: w.concepts.List(),
	}
}

type upserter struct{ w *WorkingCopy }

func (u upserter) VisitTable(e model.TableContext)   { u.w.tables.Upsert(e) }
func (u upserter) VisitColumn(e model.ColumnContext) { u.w.columns.Upsert(e) }
func (u upserter) VisitMetric(e model.Metric)        { u.w.metrics.Upsert(e) }
func (u upserter) VisitConcept(e model.Concept)      { u.w.concepts.Upsert(e) }

type remover struct{ w *WorkingCopy }

func (r remover) VisitTable(e model.TableContext)   { r.w.tables.Remove(e.Identity()) }
func (r remover) VisitColumn(e model.ColumnContext) { r.w.columns.Remove(e.Identity()) }
func (r remover) VisitMetric(e model.Metric)        { r.w.metrics.Remove(e.Identity()) }
func (r remover) VisitConcept(e model.Concept)      { r.w.concepts.Remove(e.Identity()) }
