package core

import (
	"context"

	"github.com/oneconcern/ctxmon/pkg/model"
	"go.uber.org/zap"
)

// IsAncestor tells if a revision is reachable from another one by following parent links.
// A revision is its own ancestor.
func (r *Repository) IsAncestor(ctx context.Context, ancestor, descendant model.RevisionID) (bool, error) {
	return r.isAncestor(ctx, ancestor, descendant)
}

// isAncestor walks up from descendant.
//
// Every revision knows its depth, so that the walk stops as soon as it reaches the depth of
// the ancestor and never visits more than depth(descendant) - depth(ancestor) revisions.
func (r *Repository) isAncestor(ctx context.Context, ancestor, descendant model.RevisionID) (bool, error) {
	if ancestor == descendant {
		// still checks that the revision exists
		_, _, err := r.store.ParentOf(ctx, ancestor)
		return err == nil, err
	}

	_, ancestorDepth, err := r.store.ParentOf(ctx, ancestor)
	if err != nil {
		return false, err
	}

	var steps int
	defer func() {
		r.m.AncestryWalks.Observe(float64(steps))
	}()

	current := descendant
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		parent, depth, err := r.store.ParentOf(ctx, current)
		if err != nil {
			return false, err
		}
		steps++

		if depth <= ancestorDepth || parent.IsZero() {
			r.l.Debug("ancestry walk: not an ancestor",
				zap.String("ancestor", ancestor.String()),
				zap.String("descendant", descendant.String()),
				zap.Int("steps", steps),
			)
			return false, nil
		}
		if parent == ancestor {
			r.l.Debug("ancestry walk: found ancestor",
				zap.String("ancestor", ancestor.String()),
				zap.String("descendant", descendant.String()),
				zap.Int("steps", steps),
			)
			return true, nil
		}
		current = parent
	}
}
