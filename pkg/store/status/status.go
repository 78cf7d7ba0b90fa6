// Package status declares error constants returned by
// implementations of the Store interface.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between pkg/store and one
// of its implementations.
package status

import "github.com/oneconcern/ctxmon/pkg/errors"

var (
	// ErrBranchNotFound indicates that a branch name is unknown
	ErrBranchNotFound = errors.New("branch not found")

	// ErrBranchExists indicates that a branch name is already taken
	ErrBranchExists = errors.New("branch already exists")

	// ErrRevisionNotFound indicates that a revision is missing from the log.
	//
	// This denotes a corrupted store or a bug, not a user error.
	ErrRevisionNotFound = errors.New("revision not found")

	// ErrRevisionExists indicates an attempt to overwrite an immutable revision
	ErrRevisionExists = errors.New("revision already exists")

	// ErrInvalidContent indicates that stored revision content does not decode to the expected shape
	ErrInvalidContent = errors.New("invalid revision content")

	// ErrConcurrentModification indicates that a branch moved while being updated.
	//
	// The whole operation may be retried.
	ErrConcurrentModification = errors.New("branch was concurrently modified")

	// ErrInvalidBranchName indicates that a branch name is not acceptable
	ErrInvalidBranchName = errors.New("invalid branch name")
)
