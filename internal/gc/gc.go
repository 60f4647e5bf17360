// Package gc lists garbage-collection candidates across a set of branch
// references: for each branch, the most recent Saved anchor reachable
// without replaying any unsaved entry. A record that is not a branch (a
// tag) is reported as an error, not as a candidate. It is read-only — it does not walk
// the entity graph below L1, and it never deletes anything. Pruning the
// commit DAG reachable from a ref is a mark-and-sweep problem this package
// does not solve; it only narrows the candidate set a sweep would start
// from.
package gc

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/projectnessie/nessie-core/internal/branch"
	"github.com/projectnessie/nessie-core/internal/id"
	"github.com/projectnessie/nessie-core/internal/store"
)

// Candidate is one ref's garbage-collection anchor: the ref's name, the Id
// of the last Saved commit entry's L1 (its "last defined parent"), and the
// ref's own Dt for tie-breaking or staleness reporting by a caller.
type Candidate struct {
	RefName           string
	LastDefinedParent id.Id
	Dt                int64
}

// FromRecord computes the Candidate for a single ref record. It does not
// require the ref to be fully collapsed: an unsaved suffix simply means
// the last defined parent lags behind the ref's logical head, which is
// exactly the information a GC sweep needs — it must not treat an
// in-flight commit's not-yet-derived L1 as reachable.
func FromRecord(rec store.BranchRecord) (Candidate, error) {
	b, err := branch.FromRecord(rec)
	if err != nil {
		return Candidate{}, err
	}
	return FromBranch(b)
}

// FromBranch computes the Candidate for an already-decoded branch.
func FromBranch(b branch.InternalBranch) (Candidate, error) {
	anchor, ok := lastDefinedParent(b)
	if !ok {
		return Candidate{}, fmt.Errorf("%w: branch %s has no saved anchor", branch.ErrCorruption, b.Name)
	}
	return Candidate{
		RefName:           b.Name,
		LastDefinedParent: anchor,
		Dt:                b.Dt,
	}, nil
}

// lastDefinedParent walks the intention log from the tail backward and
// returns the Id of the last Saved entry, the anchor getLastDefinedParent
// names in the lifecycle note: the most recent Saved anchor reachable
// without replaying.
func lastDefinedParent(b branch.InternalBranch) (id.Id, bool) {
	for i := len(b.Commits) - 1; i >= 0; i-- {
		if b.Commits[i].IsSaved() {
			return b.Commits[i].Id, true
		}
	}
	return id.Id{}, false
}

// List computes one Candidate per ref record, in the order given. A ref
// that fails to decode or has no saved anchor is reported as an error
// alongside its name rather than silently dropped, so a caller sweeping
// on top of this list never mistakes a skipped ref for one with nothing
// to collect. The returned error is nil only if every ref produced a
// candidate; otherwise it is a *multierror.Error collecting one entry per
// failed ref, so a caller can both log every failure and decide whether
// a partial candidate list is still useful.
func List(recs []store.BranchRecord) ([]Candidate, error) {
	candidates := make([]Candidate, 0, len(recs))
	var result *multierror.Error
	for _, rec := range recs {
		c, err := FromRecord(rec)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("gc: ref %s: %w", rec.Name, err))
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, result.ErrorOrNil()
}
