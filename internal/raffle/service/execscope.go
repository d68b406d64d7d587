package service

import (
	"context"

	"tombola/internal/raffle/ledger"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/platform/eventlog"
)

// execScope is the open unit of work of the operation currently holding the
// session lock: the journaled ledger transaction plus the events buffered
// for publication after commit. It rides on the context handed to
// collaborators, which is how a payment rail callback finds its way back
// into the same unit.
type execScope struct {
	tx     *ledger.Tx
	events []eventlog.Event

	// afterCommit hooks run once the outermost operation committed, outside
	// the session lock. Work registered here, like archive writes, must
	// never happen for a unit that still can roll back.
	afterCommit []func(ctx context.Context)
}

func (sc *execScope) emit(ev eventlog.Event) {
	sc.events = append(sc.events, ev)
}

func (sc *execScope) onCommit(fn func(ctx context.Context)) {
	sc.afterCommit = append(sc.afterCommit, fn)
}

type scopeKey struct{}

func withScope(ctx context.Context, sc *execScope) context.Context {
	return context.WithValue(ctx, scopeKey{}, sc)
}

func scopeFrom(ctx context.Context) (*execScope, bool) {
	sc, ok := ctx.Value(scopeKey{}).(*execScope)
	return sc, ok
}

// run executes one operation with all-or-nothing semantics.
//
// The outermost call takes the session lock, opens a ledger transaction,
// and commits it when fn succeeds. Buffered events are published only after
// that commit, so no event ever describes a rolled-back mutation.
//
// A nested call, one arriving on a context that already carries a scope,
// joins the open transaction under a savepoint: if it fails, exactly its
// own mutations, events and commit hooks unwind, and the enclosing
// operation decides its own fate with the error it gets back.
func (s *Service) run(ctx context.Context, op string, fn func(ctx context.Context, sc *execScope) error) error {
	if sc, ok := scopeFrom(ctx); ok {
		mark, emark, hmark := sc.tx.Mark(), len(sc.events), len(sc.afterCommit)
		if err := fn(ctx, sc); err != nil {
			sc.tx.RollbackTo(mark)
			sc.events = sc.events[:emark]
			sc.afterCommit = sc.afterCommit[:hmark]
			return err
		}
		return nil
	}

	// Events and logs go out on the caller's context, not the scoped one:
	// once the operation finished, nothing downstream may rejoin its
	// transaction.
	publishCtx := ctx
	sc := &execScope{tx: s.ledger.Begin()}

	err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		if err := fn(withScope(ctx, sc), sc); err != nil {
			sc.tx.Rollback()
			return err
		}
		if err := sc.tx.Commit(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, op+" failed to commit")
		}
		s.publish(publishCtx, sc.events)
		s.observeLedger()
		return nil
	}()
	if err != nil {
		return err
	}

	for _, hook := range sc.afterCommit {
		hook(publishCtx)
	}
	return nil
}
