// Package reconcile finds accounts whose registration never produced a profile.
//
// Accounts and profiles are paired by id: signup creates the profile with the
// id of the account it just made. Emails are not compared because a profile's
// email can be edited after signup.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/frostx76/microservices-project/internal/account/entity"
)

// DefaultGrace is how old an account must be before it can be called an orphan.
const DefaultGrace = 10 * time.Minute

// AccountSource lists and removes accounts; account/repo.AccountRepo implements it.
type AccountSource interface {
	List(ctx context.Context) ([]entity.Account, error)
	DeleteByID(ctx context.Context, id int64) error
}

// ProfileSource lists profile ids; profile/repo.ProfileRepo implements it.
type ProfileSource interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

// Orphan is an account with no profile of the same id.
type Orphan struct {
	ID        int64
	Email     string
	CreatedAt time.Time
}

// Report is the outcome of one reconciliation pass.
type Report struct {
	Accounts int
	Profiles int
	// Recent counts profileless accounts skipped because they are younger
	// than the grace period; their signup may still be running.
	Recent  int
	Orphans []Orphan
	Deleted []Orphan
	// Failed maps an orphan id to the error that kept it from being deleted.
	Failed map[int64]error
}

type Reconciler struct {
	accounts AccountSource
	profiles ProfileSource
	grace    time.Duration
	now      func() time.Time
	logger   *zap.SugaredLogger
}

// New builds a Reconciler. A grace of zero or less means DefaultGrace.
func New(accounts AccountSource, profiles ProfileSource, grace time.Duration, logger *zap.SugaredLogger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Reconciler{accounts: accounts, profiles: profiles, grace: grace, now: time.Now, logger: logger}
}

// FindOrphans returns, ordered by id, the accounts older than the grace
// period that have no profile with their id.
func (r *Reconciler) FindOrphans(ctx context.Context) (*Report, error) {
	accounts, err := r.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	profiles, err := r.profiles.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	have := make(map[int64]struct{}, len(profiles))
	for _, id := range profiles {
		have[id] = struct{}{}
	}

	cutoff := r.now().Add(-r.grace)
	rep := &Report{Accounts: len(accounts), Profiles: len(profiles), Orphans: []Orphan{}}
	for _, a := range accounts {
		if _, ok := have[a.ID]; ok {
			continue
		}
		if a.CreatedAt.After(cutoff) {
			rep.Recent++
			continue
		}
		rep.Orphans = append(rep.Orphans, Orphan{ID: a.ID, Email: a.Email, CreatedAt: a.CreatedAt})
	}
	sort.Slice(rep.Orphans, func(i, j int) bool { return rep.Orphans[i].ID < rep.Orphans[j].ID })
	return rep, nil
}

// Run finds orphans and, when remove is set, deletes them. Delete failures are
// collected in the report; the pass continues with the next orphan.
func (r *Reconciler) Run(ctx context.Context, remove bool) (*Report, error) {
	rep, err := r.FindOrphans(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range rep.Orphans {
		r.logger.Warnw("orphan account", "id", o.ID, "email", o.Email, "created_at", o.CreatedAt)
	}
	if rep.Recent > 0 {
		r.logger.Infow("skipped recent accounts without profile", "count", rep.Recent, "grace", r.grace)
	}
	if !remove {
		return rep, nil
	}
	rep.Failed = map[int64]error{}
	for _, o := range rep.Orphans {
		if err := r.accounts.DeleteByID(ctx, o.ID); err != nil {
			r.logger.Errorw("orphan delete failed", "id", o.ID, "email", o.Email, "err", err)
			rep.Failed[o.ID] = err
			continue
		}
		r.logger.Infow("orphan deleted", "id", o.ID, "email", o.Email)
		rep.Deleted = append(rep.Deleted, o)
	}
	return rep, nil
}
