package decision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lazypower/decisionos/internal/auth"
	"github.com/lazypower/decisionos/internal/logging"
)

var (
	// ErrUnauthorized means the operation needs a session that is not present.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrPersistence wraps every failure reported by a backend.
	ErrPersistence = errors.New("persistence failure")
)

// Backend is one persistence destination. Insert assigns the ID and keeps
// the given CreatedAt. Get and Update return (nil, nil) for an unknown id;
// Delete of an unknown id is not an error.
type Backend interface {
	List(ctx context.Context) ([]Decision, error)
	Get(ctx context.Context, id string) (*Decision, error)
	Insert(ctx context.Context, d Decision) (*Decision, error)
	Update(ctx context.Context, id string, p Patch) (*Decision, error)
	Delete(ctx context.Context, id string) error
}

// ProfileRefresher recomputes an account's profile in the background.
// Implementations must return immediately.
type ProfileRefresher interface {
	RefreshProfileAsync(accountID string)
}

// Mode names the backend a Journal is bound to.
type Mode string

const (
	ModeRemote Mode = "remote"
	ModeLocal  Mode = "local"
)

// Repository selects a backend from the session of each request.
type Repository struct {
	remote    func(accountID string) Backend
	local     func(deviceID string) Backend
	refresher ProfileRefresher
	log       *logging.Logger
	now       func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithLocal enables device-scoped storage for requests without an account.
func WithLocal(local func(deviceID string) Backend) Option {
	return func(r *Repository) { r.local = local }
}

// WithProfileRefresher sets the task fired after each account-scoped create.
func WithProfileRefresher(pr ProfileRefresher) Option {
	return func(r *Repository) { r.refresher = pr }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// NewRepository builds a Repository. remote is required.
func NewRepository(remote func(accountID string) Backend, log *logging.Logger, opts ...Option) *Repository {
	r := &Repository{
		remote: remote,
		log:    log,
		now:    time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// LocalEnabled reports whether anonymous requests have somewhere to go.
func (r *Repository) LocalEnabled() bool {
	return r.local != nil
}

// For binds a Journal to the backend chosen by sess. The choice is made once
// and does not change for the life of the Journal.
func (r *Repository) For(sess auth.Session) (*Journal, error) {
	switch {
	case sess.Authenticated():
		return &Journal{
			backend:   r.remote(sess.AccountID),
			mode:      ModeRemote,
			accountID: sess.AccountID,
			refresher: r.refresher,
			log:       r.log.With("backend", ModeRemote),
			now:       r.now,
		}, nil
	case sess.DeviceID != "" && r.local != nil:
		return &Journal{
			backend: r.local(sess.DeviceID),
			mode:    ModeLocal,
			log:     r.log.With("backend", ModeLocal),
			now:     r.now,
		}, nil
	default:
		return nil, ErrUnauthorized
	}
}

// Journal is the CRUD contract over a single backend.
type Journal struct {
	backend   Backend
	mode      Mode
	accountID string
	refresher ProfileRefresher
	log       *logging.Logger
	now       func() time.Time
}

func (j *Journal) Mode() Mode {
	return j.mode
}

// List returns every decision, newest first.
func (j *Journal) List(ctx context.Context) ([]Decision, error) {
	ds, err := j.backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrPersistence, err)
	}
	if ds == nil {
		ds = []Decision{}
	}
	SortNewestFirst(ds)
	return ds, nil
}

// Get returns the decision or nil when there is none with that id.
func (j *Journal) Get(ctx context.Context, id string) (*Decision, error) {
	d, err := j.backend.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", ErrPersistence, id, err)
	}
	return d, nil
}

// Create normalizes f, persists it, and returns the stored record.
func (j *Journal) Create(ctx context.Context, f Fields) (*Decision, error) {
	f = f.Normalize()
	rec := Decision{
		Title:     f.Title,
		Context:   f.Context,
		Options:   f.Options,
		Outcome:   f.Outcome,
		CreatedAt: j.now(),
	}
	if rec.Outcome != "" {
		decided := rec.CreatedAt
		rec.DecidedAt = &decided
	}

	d, err := j.backend.Insert(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("%w: create: %w", ErrPersistence, err)
	}

	if j.mode == ModeRemote && j.refresher != nil {
		j.refresher.RefreshProfileAsync(j.accountID)
	}
	j.log.Debug("decision created", "id", d.ID)
	return d, nil
}

// Update merges p into the stored record. Returns nil when id is unknown.
func (j *Journal) Update(ctx context.Context, id string, p Patch) (*Decision, error) {
	if p.Empty() {
		return j.Get(ctx, id)
	}
	d, err := j.backend.Update(ctx, id, p.Resolve(j.now()))
	if err != nil {
		return nil, fmt.Errorf("%w: update %s: %w", ErrPersistence, id, err)
	}
	return d, nil
}

// Delete removes the record. Unknown ids are not an error.
func (j *Journal) Delete(ctx context.Context, id string) error {
	if err := j.backend.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrPersistence, id, err)
	}
	return nil
}
