package model

import "fmt"

// Kind qualifies an entity within the closed set of entity kinds
type Kind string

const (
	// KindTable is the kind of table contexts
	KindTable Kind = "table"

	// KindColumn is the kind of column contexts
	KindColumn Kind = "column"

	// KindMetric is the kind of metrics
	KindMetric Kind = "metric"

	// KindConcept is the kind of concepts
	KindConcept Kind = "concept"
)

// AllKinds lists every entity kind, in canonical order
func AllKinds() []Kind {
	return []Kind{KindTable, KindColumn, KindMetric, KindConcept}
}

// IsValid checks the value of a kind
func (k Kind) IsValid() bool {
	switch k {
	case KindTable, KindColumn, KindMetric, KindConcept:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind reads a kind from its string representation
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown entity kind %q", s)
	}
	return k, nil
}
