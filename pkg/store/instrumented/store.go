// Package instrumented decorates a store with opentracing spans.
package instrumented

import (
	"context"

	"github.com/oneconcern/ctxmon/pkg/model"
	"github.com/oneconcern/ctxmon/pkg/store"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	otlog "github.com/opentracing/opentracing-go/log"
)

var _ store.Store = &instrumentedStore{}

// New wraps a store so that every call is traced as a span, child of the span found in the context if any
func New(tr opentracing.Tracer, w store.Store) store.Store {
	if tr == nil {
		tr = opentracing.NoopTracer{}
	}
	return &instrumentedStore{
		tr: tr,
		w:  w,
	}
}

type instrumentedStore struct {
	tr opentracing.Tracer
	w  store.Store
}

func (i *instrumentedStore) String() string { return i.w.String() }
func (i *instrumentedStore) Close() error   { return i.w.Close() }

func (i *instrumentedStore) Bootstrap(ctx context.Context, root *model.Revision, branch string) (err error) {
	traced(ctx, i.tr, "bootstrap", func(ctx context.Context) error {
		err = i.w.Bootstrap(ctx, root, branch)
		return err
	}, opentracing.Tag{Key: "branch", Value: branch})
	return
}

func (i *instrumentedStore) LoadRevision(ctx context.Context, id model.RevisionID) (rev *model.Revision, err error) {
	traced(ctx, i.tr, "load revision", func(ctx context.Context) error {
		rev, err = i.w.LoadRevision(ctx, id)
		return err
	}, opentracing.Tag{Key: "revision", Value: id.String()})
	return
}

func (i *instrumentedStore) ParentOf(ctx context.Context, id model.RevisionID) (parent model.RevisionID, depth int, err error) {
	traced(ctx, i.tr, "parent of", func(ctx context.Context) error {
		parent, depth, err = i.w.ParentOf(ctx, id)
		return err
	}, opentracing.Tag{Key: "revision", Value: id.String()})
	return
}

func (i *instrumentedStore) AppendRevision(ctx context.Context, rev *model.Revision) (err error) {
	traced(ctx, i.tr, "append revision", func(ctx context.Context) error {
		err = i.w.AppendRevision(ctx, rev)
		return err
	}, opentracing.Tag{Key: "revision", Value: rev.ID.String()})
	return
}

func (i *instrumentedStore) CommitRevision(ctx context.Context, branch string, rev *model.Revision) (err error) {
	traced(ctx, i.tr, "commit revision", func(ctx context.Context) error {
		err = i.w.CommitRevision(ctx, branch, rev)
		return err
	}, opentracing.Tag{Key: "branch", Value: branch}, opentracing.Tag{Key: "revision", Value: rev.ID.String()})
	return
}

func (i *instrumentedStore) GetTip(ctx context.Context, branch string) (tip model.RevisionID, err error) {
	traced(ctx, i.tr, "get tip", func(ctx context.Context) error {
		tip, err = i.w.GetTip(ctx, branch)
		return err
	}, opentracing.Tag{Key: "branch", Value: branch})
	return
}

func (i *instrumentedStore) SetBranchTip(ctx context.Context, branch string, id model.RevisionID) (err error) {
	traced(ctx, i.tr, "set branch tip", func(ctx context.Context) error {
		err = i.w.SetBranchTip(ctx, branch, id)
		return err
	}, opentracing.Tag{Key: "branch", Value: branch}, opentracing.Tag{Key: "revision", Value: id.String()})
	return
}

func (i *instrumentedStore) CompareAndSetTip(ctx context.Context, branch string, expected, id model.RevisionID) (err error) {
	traced(ctx, i.tr, "compare and set tip", func(ctx context.Context) error {
		err = i.w.CompareAndSetTip(ctx, branch, expected, id)
		return err
	}, opentracing.Tag{Key: "branch", Value: branch}, opentracing.Tag{Key: "revision", Value: id.String()})
	return
}

func (i *instrumentedStore) CreateBranch(ctx context.Context, name string, id model.RevisionID) (err error) {
	traced(ctx, i.tr, "create branch", func(ctx context.Context) error {
		err = i.w.CreateBranch(ctx, name, id)
		return err
	}, opentracing.Tag{Key: "branch", Value: name}, opentracing.Tag{Key: "revision", Value: id.String()})
	return
}

func (i *instrumentedStore) ListBranches(ctx context.Context) (branches []model.Branch, err error) {
	traced(ctx, i.tr, "list branches", func(ctx context.Context) error {
		branches, err = i.w.ListBranches(ctx)
		return err
	})
	return
}

func traced(ctx context.Context, tr opentracing.Tracer, name string, action func(context.Context) error, tags ...opentracing.Tag) {
	opts := make([]opentracing.StartSpanOption, 0, len(tags)+1)
	if parent := opentracing.SpanFromContext(ctx); parent != nil {
		opts = append(opts, opentracing.ChildOf(parent.Context()))
	}
	for _, tag := range tags {
		opts = append(opts, tag)
	}
	span := tr.StartSpan(name, opts...)
	defer span.Finish()

	if err := action(opentracing.ContextWithSpan(ctx, span)); err != nil {
		ext.Error.Set(span, true)
		span.LogFields(otlog.Error(err))
	}
}
