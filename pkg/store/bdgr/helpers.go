package bdgr

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/ctxmon/pkg/model"
	"github.com/oneconcern/ctxmon/pkg/store"
	"github.com/oneconcern/ctxmon/pkg/store/status"
)

// strict decoding: stored documents with unknown fields denote a schema drift
var codec = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

// lineage is the small record used to walk the ancestry of a revision without decoding its content
type lineage struct {
	ParentID model.RevisionID `json:"parentId,omitempty"`
	Depth    int              `json:"depth"`
}

func isNotFound(err error) bool {
	return errors.Is(err, badger.ErrKeyNotFound)
}

func mapTxnError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrConflict):
		return status.ErrConcurrentModification.Wrap(err)
	default:
		return err
	}
}

func getTip(tx *badger.Txn, branch string) (model.RevisionID, error) {
	item, err := tx.Get(branchKey(branch))
	if err != nil {
		if isNotFound(err) {
			return "", status.ErrBranchNotFound.Wrapf("%q", branch)
		}
		return "", err
	}
	b, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return model.RevisionID(store.UnsafeBytesToString(b)), nil
}

func getLineage(tx *badger.Txn, id model.RevisionID) (lineage, error) {
	item, err := tx.Get(parentKey(id))
	if err != nil {
		if isNotFound(err) {
			return lineage{}, status.ErrRevisionNotFound.Wrapf("%q", id)
		}
		return lineage{}, err
	}
	var l lineage
	err = item.Value(func(val []byte) error {
		return codec.Unmarshal(val, &l)
	})
	if err != nil {
		return lineage{}, status.ErrInvalidContent.Wrap(fmt.Errorf("lineage of revision %q: %w", id, err))
	}
	return l, nil
}

func hasRevision(tx *badger.Txn, id model.RevisionID) (bool, error) {
	_, err := tx.Get(revisionKey(id))
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

// appendRevision writes a revision and its lineage record, within a read-write transaction.
//
// The depth of the revision is set from its parent.
func appendRevision(tx *badger.Txn, rev *model.Revision) error {
	if rev.ID.IsZero() {
		return errors.New("append revision: revision id is required")
	}
	exists, err := hasRevision(tx, rev.ID)
	if err != nil {
		return err
	}
	if exists {
		return status.ErrRevisionExists.Wrapf("%q", rev.ID)
	}

	rev.Depth = 0
	if rev.HasParent() {
		parent, err := getLineage(tx, rev.ParentID)
		if err != nil {
			return fmt.Errorf("parent of %q: %w", rev.ID, err)
		}
		rev.Depth = parent.Depth + 1
	}

	data, err := codec.Marshal(rev)
	if err != nil {
		return err
	}
	lin, err := codec.Marshal(lineage{ParentID: rev.ParentID, Depth: rev.Depth})
	if err != nil {
		return err
	}
	if err = tx.Set(revisionKey(rev.ID), data); err != nil {
		return err
	}
	return tx.Set(parentKey(rev.ID), lin)
}

func requireRevision(tx *badger.Txn, id model.RevisionID) error {
	exists, err := hasRevision(tx, id)
	if err != nil {
		return err
	}
	if !exists {
		return status.ErrRevisionNotFound.Wrapf("%q", id)
	}
	return nil
}
