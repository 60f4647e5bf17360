package branch

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/projectnessie/nessie-core/internal/codec"
	"github.com/projectnessie/nessie-core/internal/config"
	"github.com/projectnessie/nessie-core/internal/executor"
	"github.com/projectnessie/nessie-core/internal/id"
	"github.com/projectnessie/nessie-core/internal/store"
	"github.com/projectnessie/nessie-core/internal/tracing"
)

// Manager drives the branch update state machine against one Store: it
// computes UpdateStates, runs ensureAvailable's two-phase commit, and owns
// the collapse retry loop.
type Manager struct {
	store    store.Store
	executor executor.Executor
	tracer   tracing.Tracer
	config   config.Config
	log      zerolog.Logger
}

// NewManager builds a Manager. exec schedules the async half of
// ensureAvailable; pass executor.Inline{} to run it synchronously. The
// Manager's tracer is derived from cfg.EnableTracing, so a caller never
// needs to wire tracing.New itself or keep the flag in sync across two
// places.
func NewManager(st store.Store, exec executor.Executor, cfg config.Config, log zerolog.Logger) *Manager {
	return &Manager{
		store:    st,
		executor: exec,
		tracer:   tracing.New(cfg.EnableTracing),
		config:   cfg,
		log:      log.With().Str("component", "branch").Logger(),
	}
}

// Shutdown releases the Manager's tracer resources. Safe to call even when
// tracing was never enabled.
func (m *Manager) Shutdown(ctx context.Context) error {
	return m.tracer.Shutdown(ctx)
}

// Prepare loads the branch with the given id and computes its UpdateState,
// the starting point for both reading its logical head and for
// EnsureAvailable. name is used only to produce a readable error if the
// branch turns out to be missing.
func (m *Manager) Prepare(ctx context.Context, branchID id.Id, name string) (InternalBranch, *UpdateState, error) {
	b, err := m.loadByID(ctx, branchID, name)
	if err != nil {
		return InternalBranch{}, nil, err
	}
	state, err := computeUpdateState(ctx, m.store, b)
	if err != nil {
		return InternalBranch{}, nil, err
	}
	return b, state, nil
}

func (m *Manager) loadByID(ctx context.Context, branchID id.Id, name string) (InternalBranch, error) {
	raw, err := m.store.LoadSingle(ctx, store.KindRef, branchID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return InternalBranch{}, fmt.Errorf("%w: %s", ErrReferenceNotFound, name)
		}
		return InternalBranch{}, err
	}
	var rec store.BranchRecord
	if err := codec.Unmarshal(raw, &rec); err != nil {
		return InternalBranch{}, fmt.Errorf("%w: %v", ErrCorruption, err)
	}
	return FromRecord(rec)
}

func (m *Manager) load(ctx context.Context, b InternalBranch) (InternalBranch, error) {
	return m.loadByID(ctx, b.Id, b.Name)
}

// EnsureAvailable is the two-phase commit a caller runs before trusting a
// staged branch's logical L1: it idempotently persists every SaveOp in
// state, then schedules collapseIntentionLog on the Manager's Executor.
// When config.WaitOnCollapse is set, it blocks for the collapse to finish;
// otherwise it returns as soon as the L1s are durable, leaving the branch
// record itself staged until some caller (this one or a later writer)
// drives the collapse to completion.
func (m *Manager) EnsureAvailable(ctx context.Context, b InternalBranch, state *UpdateState) error {
	if err := state.save(ctx, m.store); err != nil {
		return fmt.Errorf("branch: could not save derived L1s: %w", err)
	}

	future := m.executor.Go(func() error {
		_, err := m.collapseIntentionLog(ctx, b, state)
		return err
	})

	if !m.config.WaitOnCollapse {
		return nil
	}
	return future.Await(ctx)
}

// collapseIntentionLog implements §4.E.3: a bounded-attempt optimistic
// retry loop that conditionally rewrites the branch record down to a
// single Saved tail entry.
func (m *Manager) collapseIntentionLog(ctx context.Context, b InternalBranch, state *UpdateState) (InternalBranch, error) {
	ctx, span := m.tracer.Start(ctx, "InternalBranch.collapseIntentionLog")
	defer span.End()
	tracing.SetOperation(span, "collapseIntentionLog", b.Name)

	current := b
	attemptState := state

	for attempt := 1; attempt <= m.config.P2CommitAttempts; attempt++ {
		final, done, err := m.attemptCollapse(ctx, attempt, current, attemptState)
		if err != nil {
			return InternalBranch{}, err
		}
		if done {
			return final, nil
		}

		reloaded, err := m.load(ctx, current)
		if err != nil {
			return InternalBranch{}, err
		}
		current = reloaded

		attemptState, err = computeUpdateState(ctx, m.store, current)
		if err != nil {
			return InternalBranch{}, err
		}
	}

	return InternalBranch{}, fmt.Errorf("%w: exhausted %d attempts on branch %s", ErrConflict, m.config.P2CommitAttempts, b.Name)
}

// attemptCollapse runs one round of the retry loop: save, build the
// conditional update, invoke it. done is true only on a successful
// conditional update.
func (m *Manager) attemptCollapse(ctx context.Context, attempt int, current InternalBranch, state *UpdateState) (InternalBranch, bool, error) {
	ctx, span := m.tracer.Start(ctx, fmt.Sprintf("Attempt-%d", attempt))
	defer span.End()

	if err := state.save(ctx, m.store); err != nil {
		return InternalBranch{}, false, fmt.Errorf("branch: could not save derived L1s on attempt %d: %w", attempt, err)
	}

	update, condition := buildCollapseExpr(current, state)

	var produced store.BranchRecord
	ok, err := m.store.Update(ctx, store.KindRef, current.Id, update, condition, func(data []byte) {
		_ = codec.Unmarshal(data, &produced)
	})

	tracing.SetAttemptResult(span, len(state.Saves), len(state.Deletes), ok)

	if err != nil {
		return InternalBranch{}, false, fmt.Errorf("branch: conditional update failed on attempt %d: %w", attempt, err)
	}
	if !ok {
		m.log.Debug().Str("branch", current.Name).Int("attempt", attempt).Msg("collapse attempt lost the optimistic race, retrying")
		return InternalBranch{}, false, nil
	}

	final, err := FromRecord(produced)
	if err != nil {
		return InternalBranch{}, false, err
	}
	return final, true, nil
}

// buildCollapseExpr implements §4.E.3 step 2: a delete clause per scheduled
// position pinned to that position's current placeholder id, plus a
// rewrite of the tail entry pinned to its own placeholder id. Every clause
// is conjunctive, so the update is all-or-nothing.
func buildCollapseExpr(current InternalBranch, state *UpdateState) (store.UpdateExpr, store.ConditionExpr) {
	var updateClauses []store.UpdateExpr
	var conditionClauses []store.ConditionExpr

	for _, i := range state.Deletes {
		placeholder := current.Commits[i].Id
		conditionClauses = append(conditionClauses, store.Equals(store.CommitField(i, store.FieldId), placeholder))
		updateClauses = append(updateClauses, store.RemoveClause(store.CommitEntry(i)))
	}

	tail := state.FinalPosition
	conditionClauses = append(conditionClauses, store.Equals(store.CommitField(tail, store.FieldId), state.FinalPlaceholder))
	updateClauses = append(updateClauses,
		store.RemoveClause(store.CommitField(tail, store.FieldDeltas)),
		store.RemoveClause(store.CommitField(tail, store.FieldKeys)),
		store.SetClause(store.CommitField(tail, store.FieldParent), state.FinalL1.Parent),
		store.SetClause(store.CommitField(tail, store.FieldId), state.FinalL1.Id()),
	)

	return store.AndUpdate(updateClauses...), store.AndCondition(conditionClauses...)
}
