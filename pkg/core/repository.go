package core

import (
	"context"
	"fmt"
	"time"

	"github.com/oneconcern/ctxmon/pkg/core/status"
	"github.com/oneconcern/ctxmon/pkg/errors"
	"github.com/oneconcern/ctxmon/pkg/model"
	"github.com/oneconcern/ctxmon/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Repository versions context metadata on branches.
//
// Every caller goes through a Repository: it composes working copies with the revision
// and branch store. Commits and merges never lose an update: when the branch they
// advance moves concurrently, they fail with status.ErrConcurrentModification and
// may be retried.
type Repository struct {
	store store.Store
	l     *zap.Logger
	reg   prometheus.Registerer
	m     *M
	now   func() time.Time
}

// New repository on top of a store. The store is bootstrapped with an empty root revision
// and the main branch, unless they already exist.
//
// The store is owned by the caller, who closes it.
func New(ctx context.Context, st store.Store, opts ...Option) (*Repository, error) {
	r := &Repository{
		store: st,
		l:     zap.NewNop(),
		now:   time.Now,
	}
	for _, apply := range opts {
		apply(r)
	}
	r.m = newMetrics(r.reg)

	if err := st.Bootstrap(ctx, model.NewRootRevision(r.now()), model.DefaultBranch); err != nil {
		return nil, fmt.Errorf("bootstrap repository on %v: %w", st, err)
	}
	r.l.Debug("repository ready", zap.Stringer("store", st))
	return r, nil
}

// Checkout materializes the content at the tip of a branch into a new working copy
func (r *Repository) Checkout(ctx context.Context, branch string) (*WorkingCopy, error) {
	tip, err := r.store.GetTip(ctx, branch)
	if err != nil {
		return nil, err
	}
	rev, err := r.store.LoadRevision(ctx, tip)
	if err != nil {
		return nil, err
	}
	return newWorkingCopyFrom(branch, rev), nil
}

// Commit the content of a working copy as a new revision on top of the current tip of a branch.
//
// The working copy need not be checked out from that branch: its content fully replaces the
// content of the tip.
func (r *Repository) Commit(ctx context.Context, wc *WorkingCopy, branch string, opts ...CommitOption) (model.RevisionID, error) {
	if wc == nil {
		return "", status.ErrNilWorkingCopy
	}
	var settings commitSettings
	for _, apply := range opts {
		apply(&settings)
	}

	content := wc.Snapshot()
	if err := content.Validate(); err != nil {
		r.m.Commits.WithLabelValues(commitFailed).Inc()
		return "", status.ErrInvalidEntity.Wrap(err)
	}

	tip, err := r.store.GetTip(ctx, branch)
	if err != nil {
		r.m.Commits.WithLabelValues(commitFailed).Inc()
		return "", err
	}

	now := r.now().UTC()
	rev := &model.Revision{
		ID:        model.NewRevisionID(now),
		ParentID:  tip,
		Content:   content,
		Message:   settings.message,
		Author:    settings.author,
		CreatedAt: now,
	}
	if err := r.store.CommitRevision(ctx, branch, rev); err != nil {
		if errors.Is(err, status.ErrConcurrentModification) {
			r.m.Commits.WithLabelValues(commitConflict).Inc()
			r.l.Warn("commit lost a race on branch",
				zap.String("branch", branch),
				zap.String("expected", tip.String()),
			)
			return "", err
		}
		r.m.Commits.WithLabelValues(commitFailed).Inc()
		return "", err
	}

	r.m.Commits.WithLabelValues(commitOK).Inc()
	r.l.Info("committed",
		zap.String("branch", branch),
		zap.String("revision", rev.ID.String()),
		zap.String("parent", tip.String()),
		zap.Int("entities", content.Count().Total()),
	)
	return rev.ID, nil
}

// CreateBranch creates a new branch pointing to the current tip of source
func (r *Repository) CreateBranch(ctx context.Context, name, source string) error {
	if err := model.ValidateBranchName(name); err != nil {
		return status.ErrInvalidBranchName.Wrapf("%q: %v", name, err)
	}
	tip, err := r.store.GetTip(ctx, source)
	if err != nil {
		return err
	}
	if err := r.store.CreateBranch(ctx, name, tip); err != nil {
		return err
	}

	r.m.Branches.Inc()
	r.l.Info("branch created",
		zap.String("branch", name),
		zap.String("source", source),
		zap.String("revision", tip.String()),
	)
	return nil
}

// Merge fast-forwards target to the tip of source.
//
// It fails with status.ErrNonFastForward, leaving target untouched, when the tip of target
// is not an ancestor of the tip of source. Merging a branch which is already up to date
// (including merging a branch into itself) does nothing.
func (r *Repository) Merge(ctx context.Context, source, target string) error {
	sourceTip, err := r.store.GetTip(ctx, source)
	if err != nil {
		r.m.Merges.WithLabelValues(mergeFailed).Inc()
		return err
	}
	targetTip, err := r.store.GetTip(ctx, target)
	if err != nil {
		r.m.Merges.WithLabelValues(mergeFailed).Inc()
		return err
	}

	if sourceTip == targetTip {
		r.m.Merges.WithLabelValues(mergeUpToDate).Inc()
		r.l.Info("merge: already up to date",
			zap.String("source", source),
			zap.String("target", target),
			zap.String("revision", targetTip.String()),
		)
		return nil
	}

	ok, err := r.isAncestor(ctx, targetTip, sourceTip)
	if err != nil {
		r.m.Merges.WithLabelValues(mergeFailed).Inc()
		return err
	}
	if !ok {
		r.m.Merges.WithLabelValues(mergeRejected).Inc()
		r.l.Warn("merge rejected: branches have diverged",
			zap.String("source", source),
			zap.String("target", target),
			zap.String("source_tip", sourceTip.String()),
			zap.String("target_tip", targetTip.String()),
		)
		return status.ErrNonFastForward.Wrapf("merge %q into %q", source, target)
	}

	if err := r.store.CompareAndSetTip(ctx, target, targetTip, sourceTip); err != nil {
		if errors.Is(err, status.ErrConcurrentModification) {
			r.m.Merges.WithLabelValues(mergeConflict).Inc()
		} else {
			r.m.Merges.WithLabelValues(mergeFailed).Inc()
		}
		return err
	}

	r.m.Merges.WithLabelValues(mergeFastForward).Inc()
	r.l.Info("merged",
		zap.String("source", source),
		zap.String("target", target),
		zap.String("from", targetTip.String()),
		zap.String("to", sourceTip.String()),
	)
	return nil
}

// ListBranches lists the names of all branches, sorted
func (r *Repository) ListBranches(ctx context.Context) ([]string, error) {
	branches, err := r.store.ListBranches(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.Name)
	}
	return names, nil
}

// Branches lists all branches with their tip, sorted by name
func (r *Repository) Branches(ctx context.Context) ([]model.Branch, error) {
	return r.store.ListBranches(ctx)
}

// Log lists the revisions of a branch, newest first, with at most limit revisions.
// A limit of zero or less lists the whole history.
func (r *Repository) Log(ctx context.Context, branch string, limit int) ([]*model.Revision, error) {
	id, err := r.store.GetTip(ctx, branch)
	if err != nil {
		return nil, err
	}

	revisions := make([]*model.Revision, 0)
	for !id.IsZero() && (limit <= 0 || len(revisions) < limit) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rev, err := r.store.LoadRevision(ctx, id)
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, rev)
		id = rev.ParentID
	}
	return revisions, nil
}

// DiffBranches checks out two branches and computes what changes when going from one to the other
func (r *Repository) DiffBranches(ctx context.Context, from, to string) (Diff, error) {
	var existing, additional *WorkingCopy
	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() (err error) {
		existing, err = r.Checkout(gctx, from)
		return
	})
	grp.Go(func() (err error) {
		additional, err = r.Checkout(gctx, to)
		return
	})
	if err := grp.Wait(); err != nil {
		return Diff{}, err
	}
	return existing.Diff(additional), nil
}
