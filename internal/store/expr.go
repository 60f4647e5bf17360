package store

import (
	"sort"

	"github.com/projectnessie/nessie-core/internal/id"
)

// Field names one nested attribute inside a commit entry that the
// update/condition algebra can address.
type Field string

const (
	// FieldWhole addresses the entire commits[i] entry, for RemoveClause.
	FieldWhole   Field = ""
	FieldId      Field = "id"
	FieldParent  Field = "parent"
	FieldDeltas  Field = "deltas"
	FieldKeys    Field = "keys"
)

// Path addresses commits[Index].Field inside a BranchRecord, the only
// shape of path the branch collapse protocol ever needs: "commits[i].id",
// "commits[i].deltas", "commits[i].parent", "commits[i].keys", or the whole
// entry at commits[i].
type Path struct {
	Index int
	Field Field
}

// CommitEntry addresses the whole commits[i] entry.
func CommitEntry(i int) Path { return Path{Index: i, Field: FieldWhole} }

// CommitField addresses a single nested attribute of commits[i].
func CommitField(i int, f Field) Path { return Path{Index: i, Field: f} }

// UpdateExpr is the small update algebra Store.Update evaluates against a
// BranchRecord: SetClause, RemoveClause, combined with And.
type UpdateExpr interface {
	apply(rec *BranchRecord)
}

type setClause struct {
	path  Path
	value interface{}
}

// SetClause sets the attribute at path to value. value must be an id.Id for
// FieldId/FieldParent paths.
func SetClause(path Path, value interface{}) UpdateExpr {
	return setClause{path: path, value: value}
}

func (s setClause) apply(rec *BranchRecord) {
	entry := &rec.Commits[s.path.Index]
	switch s.path.Field {
	case FieldId:
		entry.Id = s.value.(id.Id)
	case FieldParent:
		entry.Parent = s.value.(id.Id)
	default:
		panic("store: SetClause on unsupported field")
	}
}

type removeClause struct {
	path Path
}

// RemoveClause removes the attribute at path. A FieldWhole path removes
// the entire commits[i] entry (and shifts later entries left).
func RemoveClause(path Path) UpdateExpr {
	return removeClause{path: path}
}

func (r removeClause) apply(rec *BranchRecord) {
	switch r.path.Field {
	case FieldWhole:
		rec.Commits = append(rec.Commits[:r.path.Index], rec.Commits[r.path.Index+1:]...)
	case FieldDeltas:
		rec.Commits[r.path.Index].Deltas = nil
	case FieldKeys:
		rec.Commits[r.path.Index].Keys = nil
	default:
		panic("store: RemoveClause on unsupported field")
	}
}

type andUpdate struct {
	clauses []UpdateExpr
}

// AndUpdate combines multiple update clauses into a single all-or-nothing
// update. Clauses that remove whole commit entries are applied from the
// highest index down so earlier removals do not shift later indices out
// from under still-pending clauses.
func AndUpdate(clauses ...UpdateExpr) UpdateExpr {
	return andUpdate{clauses: clauses}
}

func (a andUpdate) apply(rec *BranchRecord) {
	type indexed struct {
		expr UpdateExpr
		idx  int
	}
	wholeRemovals := make([]indexed, 0)
	rest := make([]UpdateExpr, 0, len(a.clauses))
	for _, c := range a.clauses {
		if rc, ok := c.(removeClause); ok && rc.path.Field == FieldWhole {
			wholeRemovals = append(wholeRemovals, indexed{expr: c, idx: rc.path.Index})
			continue
		}
		rest = append(rest, c)
	}
	for _, c := range rest {
		c.apply(rec)
	}
	sort.Slice(wholeRemovals, func(i, j int) bool { return wholeRemovals[i].idx > wholeRemovals[j].idx })
	for _, w := range wholeRemovals {
		w.expr.apply(rec)
	}
}

// ConditionExpr is the small condition algebra Store.Update evaluates
// against the currently-stored BranchRecord before applying an UpdateExpr.
type ConditionExpr interface {
	eval(rec BranchRecord) bool
}

type equalsClause struct {
	path  Path
	value interface{}
}

// Equals tests the attribute at path for equality against value. An
// out-of-range commit index evaluates to false rather than panicking,
// since the record may have shrunk since the caller built the condition.
func Equals(path Path, value interface{}) ConditionExpr {
	return equalsClause{path: path, value: value}
}

func (e equalsClause) eval(rec BranchRecord) bool {
	if e.path.Index < 0 || e.path.Index >= len(rec.Commits) {
		return false
	}
	entry := rec.Commits[e.path.Index]
	switch e.path.Field {
	case FieldId:
		want, ok := e.value.(id.Id)
		return ok && entry.Id == want
	case FieldParent:
		want, ok := e.value.(id.Id)
		return ok && entry.Parent == want
	default:
		return false
	}
}

type andCondition struct {
	clauses []ConditionExpr
}

// AndCondition combines multiple conditions conjunctively: the update is
// all-or-nothing, exactly as the collapse protocol requires.
func AndCondition(clauses ...ConditionExpr) ConditionExpr {
	return andCondition{clauses: clauses}
}

func (a andCondition) eval(rec BranchRecord) bool {
	for _, c := range a.clauses {
		if !c.eval(rec) {
			return false
		}
	}
	return true
}

// Evaluate evaluates a condition against rec. Exposed so a Store
// implementation in another package can drive the algebra without
// reaching into unexported clause types.
func Evaluate(cond ConditionExpr, rec BranchRecord) bool {
	if cond == nil {
		return true
	}
	return cond.eval(rec)
}

// Apply applies an update to a (mutable, already-cloned) rec.
func Apply(update UpdateExpr, rec *BranchRecord) {
	if update == nil {
		return
	}
	update.apply(rec)
}
