package bdgr

import (
	"github.com/oneconcern/ctxmon/pkg/model"
	"github.com/oneconcern/ctxmon/pkg/store"
)

var (
	revisionPref = [9]byte{'r', 'e', 'v', 'i', 's', 'i', 'o', 'n', ':'}
	parentPref   = [7]byte{'p', 'a', 'r', 'e', 'n', 't', ':'}
	branchPref   = [7]byte{'b', 'r', 'a', 'n', 'c', 'h', ':'}
)

func prefixed(pref []byte, key string) []byte {
	k := make([]byte, 0, len(pref)+len(key))
	k = append(k, pref...)
	return append(k, store.UnsafeStringToBytes(key)...)
}

func revisionKey(id model.RevisionID) []byte {
	return prefixed(revisionPref[:], string(id))
}

func parentKey(id model.RevisionID) []byte {
	return prefixed(parentPref[:], string(id))
}

func branchKey(name string) []byte {
	return prefixed(branchPref[:], name)
}
