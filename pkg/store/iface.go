// Package store defines the persistence of revisions and branches.
//
// The revision log is append-only: revisions are inserted, never updated nor deleted.
// Branches are the only mutable records: named pointers to a revision.
package store

import (
	"context"

	"github.com/oneconcern/ctxmon/pkg/model"
)

// RevisionStore manages the immutable revision log
type RevisionStore interface {
	// LoadRevision retrieves a revision and decodes its content.
	//
	// It fails with status.ErrRevisionNotFound when the revision is missing and with
	// status.ErrInvalidContent when the stored content does not decode to the expected shape.
	LoadRevision(context.Context, model.RevisionID) (*model.Revision, error)

	// ParentOf retrieves the parent and depth of a revision, without decoding its content.
	// The parent of a root revision is the zero RevisionID.
	ParentOf(context.Context, model.RevisionID) (model.RevisionID, int, error)

	// AppendRevision inserts a new revision. Its parent, if any, must exist.
	AppendRevision(context.Context, *model.Revision) error
}

// BranchStore manages the mutable branch pointers
type BranchStore interface {
	// GetTip tells which revision a branch points to
	GetTip(context.Context, string) (model.RevisionID, error)

	// SetBranchTip unconditionally moves a branch pointer
	SetBranchTip(ctx context.Context, branch string, id model.RevisionID) error

	// CompareAndSetTip moves a branch pointer only if it currently points to expected.
	// It fails with status.ErrConcurrentModification otherwise.
	CompareAndSetTip(ctx context.Context, branch string, expected, id model.RevisionID) error

	// CreateBranch creates a new branch pointing to an existing revision.
	// It fails with status.ErrBranchExists when the name is already taken.
	CreateBranch(ctx context.Context, name string, id model.RevisionID) error

	// ListBranches lists all branches, sorted by name
	ListBranches(context.Context) ([]model.Branch, error)
}

// Store persists revisions and branches
type Store interface {
	RevisionStore
	BranchStore

	// Bootstrap ensures that the root revision and the default branch exist.
	// It is idempotent.
	Bootstrap(ctx context.Context, root *model.Revision, branch string) error

	// CommitRevision appends a revision and moves the branch to it, provided the branch
	// still points to the revision's parent. Both happen or none does.
	CommitRevision(ctx context.Context, branch string, rev *model.Revision) error

	String() string
	Close() error
}
