// Package storetest provides a conformance suite for implementations of store.Store.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/oneconcern/ctxmon/pkg/errors"
	"github.com/oneconcern/ctxmon/pkg/model"
	"github.com/oneconcern/ctxmon/pkg/store"
	"github.com/oneconcern/ctxmon/pkg/store/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory builds a fresh, empty store for a test. The suite closes it.
type Factory func(t *testing.T) store.Store

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Run the conformance suite against a store implementation
func Run(t *testing.T, factory Factory) {
	tests := []struct {
		name string
		fn   func(*testing.T, store.Store)
	}{
		{name: "bootstrap is idempotent", fn: testBootstrap},
		{name: "append and load revisions", fn: testAppendLoad},
		{name: "append rejects missing parent and id reuse", fn: testAppendErrors},
		{name: "branch lifecycle", fn: testBranches},
		{name: "compare and set", fn: testCompareAndSet},
		{name: "commit revision", fn: testCommitRevision},
		{name: "concurrent compare and set", fn: testConcurrentCAS},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			st := factory(t)
			defer func() {
				require.NoError(t, st.Close())
			}()
			tt.fn(t, st)
		})
	}
}

func bootstrapped(t *testing.T, st store.Store) model.RevisionID {
	root := model.NewRootRevision(epoch)
	require.NoError(t, st.Bootstrap(context.Background(), root, model.DefaultBranch))
	tip, err := st.GetTip(context.Background(), model.DefaultBranch)
	require.NoError(t, err)
	return tip
}

func child(parent model.RevisionID, offset int, content model.Content) *model.Revision {
	at := epoch.Add(time.Duration(offset) * time.Second)
	return &model.Revision{
		ID:        model.NewRevisionID(at),
		ParentID:  parent,
		Content:   content.Sorted(),
		Message:   "test revision",
		Author:    "tester",
		CreatedAt: at,
	}
}

func sampleContent(desc string) model.Content {
	return model.Content{
		Table: []model.TableContext{
			{ConnectionID: "ds1", Table: "public.t1", Description: model.String(desc)},
		},
		Column: []model.ColumnContext{
			{ConnectionID: "ds1", Table: "public.t1", Column: "id", ExampleValues: []string{"1", "2"}},
		},
		Metric: []model.Metric{
			{ID: "m1", Name: "orders", Tags: []string{"sales"}, ExampleQueries: []string{"select count(*) from t1"}},
		},
		Concept: []model.Concept{
			{ID: "c1", Name: "customer", Synonyms: []string{"client"}},
		},
	}
}

func testBootstrap(t *testing.T, st store.Store) {
	ctx := context.Background()
	tip := bootstrapped(t, st)

	// a second bootstrap does not move main
	require.NoError(t, st.Bootstrap(ctx, model.NewRootRevision(epoch), model.DefaultBranch))
	again, err := st.GetTip(ctx, model.DefaultBranch)
	require.NoError(t, err)
	assert.Equal(t, tip, again)

	root, err := st.LoadRevision(ctx, tip)
	require.NoError(t, err)
	assert.False(t, root.HasParent())
	assert.True(t, root.Content.IsEmpty())

	branches, err := st.ListBranches(ctx)
	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.Equal(t, model.DefaultBranch, branches[0].Name)
	assert.Equal(t, tip, branches[0].RevisionID)
}

func testAppendLoad(t *testing.T, st store.Store) {
	ctx := context.Background()
	root := bootstrapped(t, st)

	first := child(root, 1, sampleContent("first"))
	require.NoError(t, st.AppendRevision(ctx, first))
	assert.Equal(t, 1, first.Depth)

	second := child(first.ID, 2, sampleContent("second"))
	require.NoError(t, st.AppendRevision(ctx, second))
	assert.Equal(t, 2, second.Depth)

	loaded, err := st.LoadRevision(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, loaded.ID)
	assert.Equal(t, first.ID, loaded.ParentID)
	assert.Equal(t, 2, loaded.Depth)
	assert.Equal(t, "tester", loaded.Author)
	assert.True(t, second.CreatedAt.Equal(loaded.CreatedAt))
	require.Len(t, loaded.Content.Table, 1)
	assert.Equal(t, "second", *loaded.Content.Table[0].Description)
	assert.Equal(t, []string{"1", "2"}, loaded.Content.Column[0].ExampleValues)

	// revisions are immutable: reading again yields the same document
	reloaded, err := st.LoadRevision(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, loaded, reloaded)

	parent, depth, err := st.ParentOf(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, parent)
	assert.Equal(t, 2, depth)

	parent, depth, err = st.ParentOf(ctx, root)
	require.NoError(t, err)
	assert.True(t, parent.IsZero())
	assert.Equal(t, 0, depth)

	_, err = st.LoadRevision(ctx, "missing")
	assert.True(t, errors.Is(err, status.ErrRevisionNotFound), "got %v", err)
	_, _, err = st.ParentOf(ctx, "missing")
	assert.True(t, errors.Is(err, status.ErrRevisionNotFound), "got %v", err)
}

func testAppendErrors(t *testing.T, st store.Store) {
	ctx := context.Background()
	root := bootstrapped(t, st)

	orphan := child("missing-parent", 1, model.Content{})
	err := st.AppendRevision(ctx, orphan)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrRevisionNotFound), "got %v", err)

	rev := child(root, 2, sampleContent("a"))
	require.NoError(t, st.AppendRevision(ctx, rev))

	dup := child(root, 3, sampleContent("overwrite"))
	dup.ID = rev.ID
	err = st.AppendRevision(ctx, dup)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrRevisionExists), "got %v", err)

	loaded, err := st.LoadRevision(ctx, rev.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", *loaded.Content.Table[0].Description)
}

func testBranches(t *testing.T, st store.Store) {
	ctx := context.Background()
	root := bootstrapped(t, st)

	_, err := st.GetTip(ctx, "feature")
	assert.True(t, errors.Is(err, status.ErrBranchNotFound), "got %v", err)

	require.NoError(t, st.CreateBranch(ctx, "feature", root))
	err = st.CreateBranch(ctx, "feature", root)
	assert.True(t, errors.Is(err, status.ErrBranchExists), "got %v", err)

	err = st.CreateBranch(ctx, "dangling", "missing")
	assert.True(t, errors.Is(err, status.ErrRevisionNotFound), "got %v", err)

	rev := child(root, 1, sampleContent("x"))
	require.NoError(t, st.AppendRevision(ctx, rev))
	require.NoError(t, st.SetBranchTip(ctx, "feature", rev.ID))

	tip, err := st.GetTip(ctx, "feature")
	require.NoError(t, err)
	assert.Equal(t, rev.ID, tip)

	// other branches are not affected
	tip, err = st.GetTip(ctx, model.DefaultBranch)
	require.NoError(t, err)
	assert.Equal(t, root, tip)

	err = st.SetBranchTip(ctx, "unknown", rev.ID)
	assert.True(t, errors.Is(err, status.ErrBranchNotFound), "got %v", err)
	err = st.SetBranchTip(ctx, "feature", "missing")
	assert.True(t, errors.Is(err, status.ErrRevisionNotFound), "got %v", err)

	require.NoError(t, st.CreateBranch(ctx, "alpha", root))
	branches, err := st.ListBranches(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"alpha", "feature", "main"}, names)
}

func testCompareAndSet(t *testing.T, st store.Store) {
	ctx := context.Background()
	root := bootstrapped(t, st)

	rev := child(root, 1, sampleContent("x"))
	require.NoError(t, st.AppendRevision(ctx, rev))

	err := st.CompareAndSetTip(ctx, model.DefaultBranch, rev.ID, rev.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrConcurrentModification), "got %v", err)

	tip, err := st.GetTip(ctx, model.DefaultBranch)
	require.NoError(t, err)
	assert.Equal(t, root, tip)

	require.NoError(t, st.CompareAndSetTip(ctx, model.DefaultBranch, root, rev.ID))
	tip, err = st.GetTip(ctx, model.DefaultBranch)
	require.NoError(t, err)
	assert.Equal(t, rev.ID, tip)

	err = st.CompareAndSetTip(ctx, "unknown", root, rev.ID)
	assert.True(t, errors.Is(err, status.ErrBranchNotFound), "got %v", err)
}

func testCommitRevision(t *testing.T, st store.Store) {
	ctx := context.Background()
	root := bootstrapped(t, st)

	first := child(root, 1, sampleContent("first"))
	require.NoError(t, st.CommitRevision(ctx, model.DefaultBranch, first))
	tip, err := st.GetTip(ctx, model.DefaultBranch)
	require.NoError(t, err)
	assert.Equal(t, first.ID, tip)

	// a revision based on a stale tip is rejected, and not appended
	stale := child(root, 2, sampleContent("stale"))
	err = st.CommitRevision(ctx, model.DefaultBranch, stale)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrConcurrentModification), "got %v", err)

	_, err = st.LoadRevision(ctx, stale.ID)
	assert.True(t, errors.Is(err, status.ErrRevisionNotFound), "got %v", err)

	tip, err = st.GetTip(ctx, model.DefaultBranch)
	require.NoError(t, err)
	assert.Equal(t, first.ID, tip)

	err = st.CommitRevision(ctx, "unknown", child(first.ID, 3, model.Content{}))
	assert.True(t, errors.Is(err, status.ErrBranchNotFound), "got %v", err)
}

func testConcurrentCAS(t *testing.T, st store.Store) {
	const writers = 8
	ctx := context.Background()
	root := bootstrapped(t, st)

	revs := make([]*model.Revision, writers)
	for i := range revs {
		revs[i] = child(root, i+1, sampleContent("concurrent"))
		require.NoError(t, st.AppendRevision(ctx, revs[i]))
	}

	var (
		wg        sync.WaitGroup
		mx        sync.Mutex
		successes []model.RevisionID
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(rev *model.Revision) {
			defer wg.Done()
			err := st.CompareAndSetTip(ctx, model.DefaultBranch, root, rev.ID)
			if err != nil {
				assert.True(t, errors.Is(err, status.ErrConcurrentModification), "got %v", err)
				return
			}
			mx.Lock()
			successes = append(successes, rev.ID)
			mx.Unlock()
		}(revs[i])
	}
	wg.Wait()

	require.Len(t, successes, 1)
	tip, err := st.GetTip(ctx, model.DefaultBranch)
	require.NoError(t, err)
	assert.Equal(t, successes[0], tip)
}
