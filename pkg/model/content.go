package model

import (
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Content is a full snapshot of every entity in a lineage at some point in time.
//
// Content is not a delta: a revision's content holds all entities.
type Content struct {
	Table   []TableContext  `json:"table" yaml:"table" validate:"dive"`
	Column  []ColumnContext `json:"column" yaml:"column" validate:"dive"`
	Metric  []Metric        `json:"metric" yaml:"metric" validate:"dive"`
	Concept []Concept       `json:"concept" yaml:"concept" validate:"dive"`
}

// Counts holds a number of entities per kind
type Counts map[Kind]int

// Total number of entities
func (c Counts) Total() int {
	var n int
	for _, v := range c {
		n += v
	}
	return n
}

// Count entities per kind
func (c Content) Count() Counts {
	return Counts{
		KindTable:   len(c.Table),
		KindColumn:  len(c.Column),
		KindMetric:  len(c.Metric),
		KindConcept: len(c.Concept),
	}
}

// IsEmpty is true when the content holds no entity
func (c Content) IsEmpty() bool {
	return c.Count().Total() == 0
}

// Entities lists all entities, kind after kind
func (c Content) Entities() []Entity {
	result := make([]Entity, 0, c.Count().Total())
	for _, e := range c.Table {
		result = append(result, e)
	}
	for _, e := range c.Column {
		result = append(result, e)
	}
	for _, e := range c.Metric {
		result = append(result, e)
	}
	for _, e := range c.Concept {
		result = append(result, e)
	}
	return result
}

// Sorted returns a deep copy of the content, with every list in identity key order.
//
// Nil lists are rendered as empty lists, so the serialized form always carries four lists.
func (c Content) Sorted() Content {
	return Content{
		Table:   sortedClone(c.Table, TableContext.Clone, TableContext.Identity, TableKey.Compare),
		Column:  sortedClone(c.Column, ColumnContext.Clone, ColumnContext.Identity, ColumnKey.Compare),
		Metric:  sortedClone(c.Metric, Metric.Clone, Metric.Identity, MetricKey.Compare),
		Concept: sortedClone(c.Concept, Concept.Clone, Concept.Identity, ConceptKey.Compare),
	}
}

func sortedClone[E any, K any](in []E, clone func(E) E, identity func(E) K, compare func(K, K) int) []E {
	out := make([]E, 0, len(in))
	for _, e := range in {
		out = append(out, clone(e))
	}
	slices.SortFunc(out, func(a, b E) int { return compare(identity(a), identity(b)) })
	return out
}

// Validate the shape of the content: required fields and uniqueness of
// identity keys within each kind.
func (c Content) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid content: %w", err)
	}
	if err := uniqueKeys(KindTable, c.Table, TableContext.Identity); err != nil {
		return err
	}
	if err := uniqueKeys(KindColumn, c.Column, ColumnContext.Identity); err != nil {
		return err
	}
	if err := uniqueKeys(KindMetric, c.Metric, Metric.Identity); err != nil {
		return err
	}
	return uniqueKeys(KindConcept, c.Concept, Concept.Identity)
}

func uniqueKeys[E any, K interface {
	comparable
	fmt.Stringer
}](kind Kind, entities []E, identity func(E) K) error {
	seen := make(map[K]struct{}, len(entities))
	for _, e := range entities {
		k := identity(e)
		if _, ok := seen[k]; ok {
			return fmt.Errorf("invalid content: duplicate %s key %q", kind, k.String())
		}
		seen[k] = struct{}{}
	}
	return nil
}

// ValidateEntity checks the required fields of a single entity
func ValidateEntity(e Entity) error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("invalid %s %q: %w", e.Kind(), KeyOf(e), err)
	}
	return nil
}

var branchNameRex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]*$`)

// ValidateBranchName checks that a branch name is usable as a key in every store
func ValidateBranchName(name string) error {
	return validate.Var(name, "required,max=200,branchname")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("branchname", func(fl validator.FieldLevel) bool {
		return branchNameRex.MatchString(fl.Field().String())
	})
	return v
}
