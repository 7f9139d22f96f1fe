package cli

import (
	"fmt"

	"github.com/javanhut/artgit/internal/commitstore"
	"github.com/javanhut/artgit/internal/errs"
	"github.com/javanhut/artgit/internal/nickname"
)

var errAmbiguousRef = fmt.Errorf("%w: ambiguous commit reference", errs.ErrValidation)

// resolveCommit accepts a full commit id, a short id or a nickname.
func resolveCommit(history *commitstore.Store, ref string) (string, error) {
	if _, ok := history.Get(ref); ok {
		return ref, nil
	}

	var ids []string
	for _, c := range history.InsertionOrder() {
		ids = append(ids, c.ID)
	}

	var matches []string
	if nickname.Valid(ref) {
		matches = nickname.NewIndex(ids).Lookup(ref)
	}
	if len(matches) == 0 {
		for _, id := range ids {
			if commitstore.ShortID(id) == ref {
				matches = append(matches, id)
			}
		}
	}

	switch len(matches) {
	case 0:
		// Restore reports the unknown id itself.
		return ref, nil
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("%w %q matches %d commits", errAmbiguousRef, ref, len(matches))
}
