package core

import (
	"github.com/oneconcern/ctxmon/pkg/model"
)

const (
	// DiffEntryTypeAdd indicates the other side exhibits an extra entity
	DiffEntryTypeAdd DiffEntryType = iota
	// DiffEntryTypeDel indicates the other side exhibits a missing entity
	DiffEntryTypeDel
	// DiffEntryTypeDif indicates both sides hold different versions of an entity
	DiffEntryTypeDif
)

// DiffEntryType qualifies the type of difference between two working copies
type DiffEntryType uint

func (det DiffEntryType) String() string {
	diffEntryStrings := map[DiffEntryType]string{
		DiffEntryTypeAdd: "A",
		DiffEntryTypeDel: "D",
		DiffEntryTypeDif: "U",
	}
	return diffEntryStrings[det]
}

// Change holds both versions of a modified entity
type Change[E any] struct {
	Before E `json:"before" yaml:"before"`
	After  E `json:"after" yaml:"after"`
}

// KindDiff describes the differences for a single kind of entity.
//
// Every list is in identity key order, and never nil.
type KindDiff[E any] struct {
	Added    []E         `json:"added" yaml:"added"`
	Removed  []E         `json:"removed" yaml:"removed"`
	Modified []Change[E] `json:"modified" yaml:"modified"`
}

// IsEmpty is true when no entity of this kind differs
func (d KindDiff[E]) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// DiffCounts summarizes a KindDiff
type DiffCounts struct {
	Added    int `json:"added" yaml:"added"`
	Removed  int `json:"removed" yaml:"removed"`
	Modified int `json:"modified" yaml:"modified"`
}

func (d KindDiff[E]) counts() DiffCounts {
	return DiffCounts{Added: len(d.Added), Removed: len(d.Removed), Modified: len(d.Modified)}
}

// Diff describes all differences between two working copies, kind by kind
type Diff struct {
	Table   KindDiff[model.TableContext]  `json:"table" yaml:"table"`
	Column  KindDiff[model.ColumnContext] `json:"column" yaml:"column"`
	Metric  KindDiff[model.Metric]        `json:"metric" yaml:"metric"`
	Concept KindDiff[model.Concept]       `json:"concept" yaml:"concept"`
}

// IsEmpty is true when both working copies hold the same content
func (d Diff) IsEmpty() bool {
	return d.Table.IsEmpty() && d.Column.IsEmpty() && d.Metric.IsEmpty() && d.Concept.IsEmpty()
}

// Summary counts the differences per kind
func (d Diff) Summary() map[model.Kind]DiffCounts {
	return map[model.Kind]DiffCounts{
		model.KindTable:   d.Table.counts(),
		model.KindColumn:  d.Column.counts(),
		model.KindMetric:  d.Metric.counts(),
		model.KindConcept: d.Concept.counts(),
	}
}

// DiffEntry describes a single point of difference between two working copies
type DiffEntry struct {
	Type       DiffEntryType
	Kind       model.Kind
	Key        string
	Existing   model.Entity // nil for added entities
	Additional model.Entity // nil for removed entities
}

// Entries flattens the differences, kind after kind, in identity key order within each kind
func (d Diff) Entries() []DiffEntry {
	entries := make([]DiffEntry, 0)
	entries = appendEntries(entries, d.Table)
	entries = appendEntries(entries, d.Column)
	entries = appendEntries(entries, d.Metric)
	return appendEntries(entries, d.Concept)
}

func appendEntries[E model.Entity](entries []DiffEntry, d KindDiff[E]) []DiffEntry {
	for _, e := range d.Added {
		entries = append(entries, DiffEntry{Type: DiffEntryTypeAdd, Kind: e.Kind(), Key: model.KeyOf(e), Additional: e})
	}
	for _, e := range d.Removed {
		entries = append(entries, DiffEntry{Type: DiffEntryTypeDel, Kind: e.Kind(), Key: model.KeyOf(e), Existing: e})
	}
	for _, c := range d.Modified {
		entries = append(entries, DiffEntry{
			Type:       DiffEntryTypeDif,
			Kind:       c.Before.Kind(),
			Key:        model.KeyOf(c.Before),
			Existing:   c.Before,
			Additional: c.After,
		})
	}
	return entries
}

// Diff computes what changes when going from this working copy to the other one.
//
// Added entities only exist in other, removed entities only exist in this working copy.
func (w *WorkingCopy) Diff(other *WorkingCopy) Diff {
	return Diff{
		Table:   diffCollections(w.tables, other.tables),
		Column:  diffCollections(w.columns, other.columns),
		Metric:  diffCollections(w.metrics, other.metrics),
		Concept: diffCollections(w.concepts, other.concepts),
	}
}

func diffCollections[K identityKey[K], E entity[K, E]](existing, additional *Collection[K, E]) KindDiff[E] {
	d := KindDiff[E]{
		Added:    make([]E, 0),
		Removed:  make([]E, 0),
		Modified: make([]Change[E], 0),
	}

	// List() is sorted, so are the results
	for _, before := range existing.List() {
		after, ok := additional.items[before.Identity()]
		switch {
		case !ok:
			d.Removed = append(d.Removed, before)
		case !before.Equal(after):
			d.Modified = append(d.Modified, Change[E]{Before: before, After: after.Clone()})
		}
	}
	for _, after := range additional.List() {
		if _, ok := existing.items[after.Identity()]; !ok {
			d.Added = append(d.Added, after)
		}
	}
	return d
}
