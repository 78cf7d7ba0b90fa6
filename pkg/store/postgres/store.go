// Package postgres implements a revision and branch store on PostgreSQL.
//
// Revisions are rows of an append-only table with a self-referencing parent key and the
// content as a JSONB document. Branches are rows of a small table pointing to revisions.
//
// Branch updates are conditional on the current tip (compare-and-swap), and commits
// hold a row lock on the branch for the whole read-modify-write: writers to distinct
// branches never contend.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/ctxmon/pkg/model"
	"github.com/oneconcern/ctxmon/pkg/store"
	"github.com/oneconcern/ctxmon/pkg/store/status"
	"go.uber.org/zap"
)

var _ store.Store = &Store{}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var codec = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

// Option configures a postgres store
type Option func(*Store)

// Schema sets the database schema holding the tables (default: "ctxmon")
func Schema(name string) Option {
	return func(s *Store) {
		s.schema = name
	}
}

// Logger sets the logger
func Logger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.l = l
		}
	}
}

// Store is a postgres-backed revision and branch store.
//
// A Store is safe for concurrent use.
type Store struct {
	pool   *pgxpool.Pool
	schema string
	t      tables
	l      *zap.Logger
}

// New connects to the database and ensures the schema exists
func New(ctx context.Context, databaseURL string, opts ...Option) (*Store, error) {
	s := &Store{
		schema: "ctxmon",
		l:      zap.NewNop(),
	}
	for _, apply := range opts {
		apply(s)
	}
	s.t = newTables(s.schema)

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.pool = pool

	if err = s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema %q: %w", s.schema, err)
	}
	return s, nil
}

func (s *Store) String() string {
	return "postgres@" + s.pool.Config().ConnConfig.Host + "/" + s.schema
}

// Close the connection pool
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Bootstrap creates the root revision and the default branch, unless the branch already exists
func (s *Store) Bootstrap(ctx context.Context, root *model.Revision, branch string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(bootstrapLock)); err != nil {
			return err
		}
		_, err := s.getTip(ctx, tx, branch, false)
		if err == nil {
			return nil
		}
		if !errors.Is(err, status.ErrBranchNotFound) {
			return err
		}
		root.ParentID = ""
		if err = s.appendRevision(ctx, tx, root); err != nil {
			return err
		}
		s.l.Info("bootstrapped repository", zap.String("branch", branch), zap.String("revision", root.ID.String()))
		return s.insertBranch(ctx, tx, branch, root.ID)
	})
}

func (s *Store) getTip(ctx context.Context, q pgx.Tx, branch string, forUpdate bool) (model.RevisionID, error) {
	query := fmt.Sprintf(`SELECT revision_id FROM %s WHERE name = $1`, s.t.branches)
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var tip string
	if err := q.QueryRow(ctx, query, branch).Scan(&tip); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", status.ErrBranchNotFound.Wrapf("%q", branch)
		}
		return "", err
	}
	return model.RevisionID(tip), nil
}

func (s *Store) insertBranch(ctx context.Context, tx pgx.Tx, name string, id model.RevisionID) error {
	_, err := tx.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (name, revision_id) VALUES ($1, $2)`, s.t.branches), name, string(id))
	switch pgCode(err) {
	case "":
		return err
	case uniqueViolation:
		return status.ErrBranchExists.Wrapf("%q", name)
	case foreignKeyViolation:
		return status.ErrRevisionNotFound.Wrapf("%q", id)
	default:
		return err
	}
}

// appendRevision inserts a revision row. The depth of the revision is set from its parent.
func (s *Store) appendRevision(ctx context.Context, tx pgx.Tx, rev *model.Revision) error {
	if rev.ID.IsZero() {
		return errors.New("append revision: revision id is required")
	}

	rev.Depth = 0
	var parent *string
	if rev.HasParent() {
		var depth int
		err := tx.QueryRow(ctx, fmt.Sprintf(`SELECT depth FROM %s WHERE id = $1`, s.t.revisions), string(rev.ParentID)).Scan(&depth)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("parent of %q: %w", rev.ID, status.ErrRevisionNotFound.Wrapf("%q", rev.ParentID))
			}
			return err
		}
		rev.Depth = depth + 1
		p := string(rev.ParentID)
		parent = &p
	}

	content, err := codec.Marshal(rev.Content.Sorted())
	if err != nil {
		return err
	}
	createdAt := rev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = tx.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, parent_id, depth, content, message, author, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`, s.t.revisions),
		string(rev.ID), parent, rev.Depth, content, rev.Message, rev.Author, createdAt,
	)
	switch pgCode(err) {
	case "":
		return err
	case uniqueViolation:
		return status.ErrRevisionExists.Wrapf("%q", rev.ID)
	case foreignKeyViolation:
		return status.ErrRevisionNotFound.Wrapf("parent %q", rev.ParentID)
	default:
		return err
	}
}

// LoadRevision reads a revision and validates its content
func (s *Store) LoadRevision(ctx context.Context, id model.RevisionID) (*model.Revision, error) {
	var (
		revID   string
		parent  *string
		content []byte
		rev     model.Revision
	)
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT id, parent_id, depth, content, message, author, created_at FROM %s WHERE id = $1`, s.t.revisions),
		string(id),
	).Scan(&revID, &parent, &rev.Depth, &content, &rev.Message, &rev.Author, &rev.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, status.ErrRevisionNotFound.Wrapf("%q", id)
		}
		return nil, err
	}
	rev.ID = model.RevisionID(revID)
	if parent != nil {
		rev.ParentID = model.RevisionID(*parent)
	}
	rev.CreatedAt = rev.CreatedAt.UTC()

	if err = codec.Unmarshal(content, &rev.Content); err != nil {
		return nil, status.ErrInvalidContent.Wrap(fmt.Errorf("revision %q: %w", id, err))
	}
	if err = rev.Content.Validate(); err != nil {
		return nil, status.ErrInvalidContent.Wrap(fmt.Errorf("revision %q: %w", id, err))
	}
	return &rev, nil
}

// ParentOf reads the parent and depth of a revision
func (s *Store) ParentOf(ctx context.Context, id model.RevisionID) (model.RevisionID, int, error) {
	var (
		parent *string
		depth  int
	)
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT parent_id, depth FROM %s WHERE id = $1`, s.t.revisions), string(id)).Scan(&parent, &depth)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, status.ErrRevisionNotFound.Wrapf("%q", id)
		}
		return "", 0, err
	}
	if parent == nil {
		return "", depth, nil
	}
	return model.RevisionID(*parent), depth, nil
}

// AppendRevision inserts a revision. The depth of the revision is set from its parent.
func (s *Store) AppendRevision(ctx context.Context, rev *model.Revision) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return s.appendRevision(ctx, tx, rev)
	})
}

// CommitRevision appends a revision and advances the branch to it, holding a lock on the branch row
func (s *Store) CommitRevision(ctx context.Context, branch string, rev *model.Revision) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tip, err := s.getTip(ctx, tx, branch, true)
		if err != nil {
			return err
		}
		if tip != rev.ParentID {
			return status.ErrConcurrentModification.Wrapf("branch %q moved from %q to %q", branch, rev.ParentID, tip)
		}
		if err = s.appendRevision(ctx, tx, rev); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, fmt.Sprintf(`UPDATE %s SET revision_id = $2 WHERE name = $1`, s.t.branches), branch, string(rev.ID))
		return err
	})
}

// GetTip reads a branch pointer
func (s *Store) GetTip(ctx context.Context, branch string) (model.RevisionID, error) {
	var tip string
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT revision_id FROM %s WHERE name = $1`, s.t.branches), branch).Scan(&tip)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", status.ErrBranchNotFound.Wrapf("%q", branch)
		}
		return "", err
	}
	return model.RevisionID(tip), nil
}

// SetBranchTip moves an existing branch pointer
func (s *Store) SetBranchTip(ctx context.Context, branch string, id model.RevisionID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`UPDATE %s SET revision_id = $2 WHERE name = $1`, s.t.branches), branch, string(id))
	if err != nil {
		if pgCode(err) == foreignKeyViolation {
			return status.ErrRevisionNotFound.Wrapf("%q", id)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return status.ErrBranchNotFound.Wrapf("%q", branch)
	}
	return nil
}

// CompareAndSetTip moves a branch pointer if it still points to the expected revision
func (s *Store) CompareAndSetTip(ctx context.Context, branch string, expected, id model.RevisionID) error {
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET revision_id = $3 WHERE name = $1 AND revision_id = $2`, s.t.branches),
		branch, string(expected), string(id),
	)
	if err != nil {
		if pgCode(err) == foreignKeyViolation {
			return status.ErrRevisionNotFound.Wrapf("%q", id)
		}
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	tip, err := s.GetTip(ctx, branch)
	if err != nil {
		return err
	}
	return status.ErrConcurrentModification.Wrapf("branch %q moved from %q to %q", branch, expected, tip)
}

// CreateBranch creates a new branch pointer
func (s *Store) CreateBranch(ctx context.Context, name string, id model.RevisionID) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return s.insertBranch(ctx, tx, name, id)
	})
}

// ListBranches lists all branch pointers, by name
func (s *Store) ListBranches(ctx context.Context) ([]model.Branch, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT name, revision_id FROM %s ORDER BY name`, s.t.branches))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Branch, error) {
		var name, id string
		if err := row.Scan(&name, &id); err != nil {
			return model.Branch{}, err
		}
		return model.Branch{Name: name, RevisionID: model.RevisionID(id)}, nil
	})
}
