package model

import (
	"fmt"
	"time"

	"github.com/segmentio/ksuid"
)

// DefaultBranch is the shared line of history. It always exists.
const DefaultBranch = "main"

// RevisionID identifies a revision. The zero value stands for "no revision".
type RevisionID string

func (id RevisionID) String() string { return string(id) }

// IsZero is true for the "no revision" value
func (id RevisionID) IsZero() bool { return id == "" }

// NewRevisionID generates a new, time-sortable revision id
func NewRevisionID(at time.Time) RevisionID {
	id, err := ksuid.NewRandomWithTime(at)
	if err != nil {
		panic(fmt.Sprintf("cannot generate random ksuid: %v", err))
	}
	return RevisionID(id.String())
}

// Revision is an immutable snapshot of the content, linked to at most one parent.
//
// The root revision of a repository has no parent and an empty content.
type Revision struct {
	ID        RevisionID `json:"id" yaml:"id"`
	ParentID  RevisionID `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	Depth     int        `json:"depth" yaml:"depth"` // number of ancestors: 0 for the root revision
	Content   Content    `json:"content" yaml:"content"`
	Message   string     `json:"message,omitempty" yaml:"message,omitempty"`
	Author    string     `json:"author,omitempty" yaml:"author,omitempty"`
	CreatedAt time.Time  `json:"createdAt" yaml:"createdAt"`
	_         struct{}
}

// HasParent is false only for a root revision
func (r *Revision) HasParent() bool {
	return !r.ParentID.IsZero()
}

// NewRootRevision builds the initial, empty revision of a repository
func NewRootRevision(at time.Time) *Revision {
	return &Revision{
		ID:        NewRevisionID(at),
		Content:   Content{}.Sorted(),
		Message:   "initial revision",
		CreatedAt: at.UTC(),
	}
}

// Branch is a named, mutable pointer to a revision
type Branch struct {
	Name       string     `json:"name" yaml:"name"`
	RevisionID RevisionID `json:"revisionId" yaml:"revisionId"`
	_          struct{}
}
