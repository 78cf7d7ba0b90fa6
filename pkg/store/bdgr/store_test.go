package bdgr

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/oneconcern/ctxmon/pkg/errors"
	"github.com/oneconcern/ctxmon/pkg/model"
	"github.com/oneconcern/ctxmon/pkg/store"
	"github.com/oneconcern/ctxmon/pkg/store/status"
	"github.com/oneconcern/ctxmon/pkg/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newMemStore(t *testing.T) *Store {
	st, err := New(InMemory(true), Logger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return st
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newMemStore(t)
	})
}

func TestPersistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, err := New(BaseDir(dir), SyncWrites(false), GCInterval(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "badger@"+dir, st.String())

	root := model.NewRootRevision(time.Now())
	require.NoError(t, st.Bootstrap(ctx, root, model.DefaultBranch))
	require.NoError(t, st.CreateBranch(ctx, "job-1", root.ID))
	require.NoError(t, st.Close())
	require.NoError(t, st.Close(), "closing twice is a no-op")

	reopened, err := New(BaseDir(dir), GCInterval(0))
	require.NoError(t, err)
	defer reopened.Close()

	tip, err := reopened.GetTip(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, root.ID, tip)
}

func TestInvalidContent(t *testing.T) {
	ctx := context.Background()
	st := newMemStore(t)
	defer st.Close()

	root := model.NewRootRevision(time.Now())
	require.NoError(t, st.Bootstrap(ctx, root, model.DefaultBranch))

	corrupt := func(id model.RevisionID, doc string) {
		require.NoError(t, st.db.Update(func(tx *badger.Txn) error {
			return tx.Set(revisionKey(id), []byte(doc))
		}))
	}

	t.Run("not json", func(t *testing.T) {
		corrupt("r1", `{"id": "r1", "content": [`)
		_, err := st.LoadRevision(ctx, "r1")
		assert.True(t, errors.Is(err, status.ErrInvalidContent), "got %v", err)
	})

	t.Run("schema drift", func(t *testing.T) {
		corrupt("r2", `{"id": "r2", "content": {"table": [], "dashboards": []}}`)
		_, err := st.LoadRevision(ctx, "r2")
		assert.True(t, errors.Is(err, status.ErrInvalidContent), "got %v", err)
	})

	t.Run("wrong shape", func(t *testing.T) {
		corrupt("r3", `{"id": "r3", "content": {"table": [{"connectionId": 12}]}}`)
		_, err := st.LoadRevision(ctx, "r3")
		assert.True(t, errors.Is(err, status.ErrInvalidContent), "got %v", err)
	})

	t.Run("missing identity", func(t *testing.T) {
		corrupt("r4", `{"id": "r4", "content": {"metric": [{"id": "m1"}]}}`)
		_, err := st.LoadRevision(ctx, "r4")
		assert.True(t, errors.Is(err, status.ErrInvalidContent), "got %v", err)
	})

	t.Run("id mismatch", func(t *testing.T) {
		corrupt("r5", `{"id": "other", "content": {}}`)
		_, err := st.LoadRevision(ctx, "r5")
		assert.True(t, errors.Is(err, status.ErrInvalidContent), "got %v", err)
	})
}
