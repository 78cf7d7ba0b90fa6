// Package status exports errors produced by the core package.
package status

import (
	"github.com/oneconcern/ctxmon/pkg/errors"
	storestatus "github.com/oneconcern/ctxmon/pkg/store/status"
)

var (
	// ErrNonFastForward indicates that a merge was rejected because the target
	// branch is not an ancestor of the source branch.
	//
	// This is expected in normal operation, e.g. when main advanced after a proposal branch was created.
	ErrNonFastForward = errors.New("cannot fast-forward; branch has diverged")

	// ErrNilWorkingCopy indicates that a commit was attempted without a working copy
	ErrNilWorkingCopy = errors.New("working copy is required")

	// ErrInvalidEntity indicates that a working copy holds entities which cannot be committed
	ErrInvalidEntity = errors.New("invalid entity")

	// Errors from the store

	ErrBranchNotFound         = storestatus.ErrBranchNotFound
	ErrBranchExists           = storestatus.ErrBranchExists
	ErrRevisionNotFound       = storestatus.ErrRevisionNotFound
	ErrInvalidContent         = storestatus.ErrInvalidContent
	ErrConcurrentModification = storestatus.ErrConcurrentModification
	ErrInvalidBranchName      = storestatus.ErrInvalidBranchName
)
