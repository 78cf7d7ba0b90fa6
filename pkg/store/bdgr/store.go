// Package bdgr implements a revision and branch store on top of an embedded badger database.
//
// Keys are laid out with a prefix per record type:
//
//	revision:<id>  the full revision document
//	parent:<id>    the lineage of a revision (parent id and depth)
//	branch:<name>  the revision id a branch points to
//
// Every mutation runs in a single badger transaction. Badger transactions are
// optimistic: a transaction which read a branch pointer updated concurrently by
// another committed transaction fails with badger.ErrConflict, reported as
// status.ErrConcurrentModification.
package bdgr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/oneconcern/ctxmon/pkg/dlogger"
	"github.com/oneconcern/ctxmon/pkg/model"
	"github.com/oneconcern/ctxmon/pkg/store"
	"github.com/oneconcern/ctxmon/pkg/store/status"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var _ store.Store = &Store{}

// Option configures a badger store
type Option func(*Store)

// BaseDir sets the directory of the database files
func BaseDir(path string) Option {
	return func(s *Store) {
		s.baseDir = path
	}
}

// InMemory runs the store without disk persistence (for tests)
func InMemory(enabled bool) Option {
	return func(s *Store) {
		s.inMemory = enabled
	}
}

// SyncWrites enables synchronous writes
func SyncWrites(enabled bool) Option {
	return func(s *Store) {
		s.syncWrites = enabled
	}
}

// Logger sets the logger. Badger internal messages below the warn level are discarded.
func Logger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.l = l
		}
	}
}

// GCInterval sets the period of value log garbage collection. Zero disables it.
func GCInterval(d time.Duration) Option {
	return func(s *Store) {
		s.gcInterval = d
	}
}

// Store is a badger-backed revision and branch store.
//
// A Store is safe for concurrent use.
type Store struct {
	baseDir    string
	inMemory   bool
	syncWrites bool
	gcInterval time.Duration
	l          *zap.Logger

	db    *badger.DB
	gc    *gcRunner
	close sync.Once
}

// New opens a badger store
func New(opts ...Option) (*Store, error) {
	s := &Store{
		baseDir:    ".ctxmon",
		syncWrites: true,
		gcInterval: 5 * time.Minute,
		l:          zap.NewNop(),
	}
	for _, apply := range opts {
		apply(s)
	}

	var bopts badger.Options
	if s.inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(s.baseDir, 0700); err != nil {
			return nil, fmt.Errorf("ensuring directory %q: %w", s.baseDir, err)
		}
		bopts = badger.DefaultOptions(s.baseDir)
	}
	bopts = bopts.
		WithSyncWrites(s.syncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(dlogger.NewPrintf(s.l.Named("badger").WithOptions(zap.IncreaseLevel(zap.WarnLevel))))

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	s.db = db

	if !s.inMemory && s.gcInterval > 0 {
		s.gc = startGC(db, s.gcInterval, 0.5, s.l)
	}
	return s, nil
}

func (s *Store) String() string {
	if s.inMemory {
		return "badger@memory"
	}
	return "badger@" + s.baseDir
}

// Close the database
func (s *Store) Close() error {
	var err error

	s.close.Do(func() {
		if s.gc != nil {
			s.gc.stop()
		}
		if s.db != nil {
			err = multierr.Append(err, s.db.Close())
		}
	})

	return err
}

// Bootstrap creates the root revision and the default branch, unless the branch already exists
func (s *Store) Bootstrap(ctx context.Context, root *model.Revision, branch string) error {
	return mapTxnError(s.db.Update(func(tx *badger.Txn) error {
		_, err := getTip(tx, branch)
		if err == nil {
			return nil
		}
		if !errors.Is(err, status.ErrBranchNotFound) {
			return err
		}
		root.ParentID = ""
		if err = appendRevision(tx, root); err != nil {
			return err
		}
		return tx.Set(branchKey(branch), []byte(root.ID))
	}))
}

// LoadRevision reads a revision and validates its content
func (s *Store) LoadRevision(ctx context.Context, id model.RevisionID) (*model.Revision, error) {
	var rev model.Revision
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(revisionKey(id))
		if err != nil {
			if isNotFound(err) {
				return status.ErrRevisionNotFound.Wrapf("%q", id)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			if e := codec.Unmarshal(val, &rev); e != nil {
				return status.ErrInvalidContent.Wrap(fmt.Errorf("revision %q: %w", id, e))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if rev.ID != id {
		return nil, status.ErrInvalidContent.Wrapf("revision %q is stored with id %q", id, rev.ID)
	}
	if err = rev.Content.Validate(); err != nil {
		return nil, status.ErrInvalidContent.Wrap(fmt.Errorf("revision %q: %w", id, err))
	}
	return &rev, nil
}

// ParentOf reads the lineage of a revision
func (s *Store) ParentOf(ctx context.Context, id model.RevisionID) (model.RevisionID, int, error) {
	var l lineage
	err := s.db.View(func(tx *badger.Txn) error {
		var err error
		l, err = getLineage(tx, id)
		return err
	})
	if err != nil {
		return "", 0, err
	}
	return l.ParentID, l.Depth, nil
}

// AppendRevision inserts a revision. The depth of the revision is set from its parent.
func (s *Store) AppendRevision(ctx context.Context, rev *model.Revision) error {
	return mapTxnError(s.db.Update(func(tx *badger.Txn) error {
		return appendRevision(tx, rev)
	}))
}

// CommitRevision appends a revision and advances the branch to it, if the branch still points to the parent
func (s *Store) CommitRevision(ctx context.Context, branch string, rev *model.Revision) error {
	return mapTxnError(s.db.Update(func(tx *badger.Txn) error {
		tip, err := getTip(tx, branch)
		if err != nil {
			return err
		}
		if tip != rev.ParentID {
			return status.ErrConcurrentModification.Wrapf("branch %q moved from %q to %q", branch, rev.ParentID, tip)
		}
		if err = appendRevision(tx, rev); err != nil {
			return err
		}
		return tx.Set(branchKey(branch), []byte(rev.ID))
	}))
}

// GetTip reads a branch pointer
func (s *Store) GetTip(ctx context.Context, branch string) (model.RevisionID, error) {
	var tip model.RevisionID
	err := s.db.View(func(tx *badger.Txn) error {
		var err error
		tip, err = getTip(tx, branch)
		return err
	})
	return tip, err
}

// SetBranchTip moves an existing branch pointer
func (s *Store) SetBranchTip(ctx context.Context, branch string, id model.RevisionID) error {
	return mapTxnError(s.db.Update(func(tx *badger.Txn) error {
		if _, err := getTip(tx, branch); err != nil {
			return err
		}
		if err := requireRevision(tx, id); err != nil {
			return err
		}
		return tx.Set(branchKey(branch), []byte(id))
	}))
}

// CompareAndSetTip moves a branch pointer if it still points to the expected revision
func (s *Store) CompareAndSetTip(ctx context.Context, branch string, expected, id model.RevisionID) error {
	return mapTxnError(s.db.Update(func(tx *badger.Txn) error {
		tip, err := getTip(tx, branch)
		if err != nil {
			return err
		}
		if tip != expected {
			return status.ErrConcurrentModification.Wrapf("branch %q moved from %q to %q", branch, expected, tip)
		}
		if err := requireRevision(tx, id); err != nil {
			return err
		}
		return tx.Set(branchKey(branch), []byte(id))
	}))
}

// CreateBranch creates a new branch pointer
func (s *Store) CreateBranch(ctx context.Context, name string, id model.RevisionID) error {
	return mapTxnError(s.db.Update(func(tx *badger.Txn) error {
		_, err := getTip(tx, name)
		if err == nil {
			return status.ErrBranchExists.Wrapf("%q", name)
		}
		if !errors.Is(err, status.ErrBranchNotFound) {
			return err
		}
		if err := requireRevision(tx, id); err != nil {
			return err
		}
		return tx.Set(branchKey(name), []byte(id))
	}))
}

// ListBranches iterates over all branch pointers
func (s *Store) ListBranches(ctx context.Context) ([]model.Branch, error) {
	var result []model.Branch
	err := s.db.View(func(tx *badger.Txn) error {
		pref := branchPref[:]
		opts := badger.DefaultIteratorOptions
		opts.Prefix = pref

		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek(pref); it.ValidForPrefix(pref); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result = append(result, model.Branch{
				Name:       string(item.Key()[len(pref):]),
				RevisionID: model.RevisionID(val),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}
