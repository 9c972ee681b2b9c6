// Package memdir is an in-memory account directory with firebase-like error
// semantics for tests
package memdir

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"

	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/services/provision/domain"

	"github.com/google/uuid"
)

// Hooks let tests inject failures or simulate races
// a hook returning a non nil error short circuits the call
type Hooks struct {
	BeforeLookup func(identifier string) error
	BeforeCreate func(identifier string) error
}

// Dir is a concurrency safe map backed directory
type Dir struct {
	mu       sync.Mutex
	byEmail  map[string]account
	newUID   func() string
	hooks    Hooks
	lookups  atomic.Int64
	creates  atomic.Int64
	inflight atomic.Int64
	peak     atomic.Int64
}

type account struct {
	uid    string
	secret string
	claims map[string]any
}

var _ domain.AdminDirectory = (*Dir)(nil)

// New returns an empty directory issuing random uuid uids
func New() *Dir {
	return &Dir{byEmail: map[string]account{}, newUID: uuid.NewString}
}

// WithHooks sets failure hooks
func (d *Dir) WithHooks(h Hooks) *Dir {
	d.hooks = h
	return d
}

// WithUIDs makes uids deterministic
func (d *Dir) WithUIDs(fn func() string) *Dir {
	d.newUID = fn
	return d
}

// Seed adds an account and returns its uid
func (d *Dir) Seed(identifier, secret string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if a, ok := d.byEmail[identifier]; ok {
		return a.uid
	}
	a := account{uid: d.newUID(), secret: secret}
	d.byEmail[identifier] = a
	return a.uid
}

// LookupAccount returns the account or a not found error
func (d *Dir) LookupAccount(ctx context.Context, identifier string) (domain.Account, error) {
	defer d.enter()()
	d.lookups.Add(1)
	if err := ctx.Err(); err != nil {
		return domain.Account{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "lookup canceled")
	}
	if h := d.hooks.BeforeLookup; h != nil {
		if err := h(identifier); err != nil {
			return domain.Account{}, err
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.byEmail[identifier]
	if !ok {
		return domain.Account{}, perr.NotFoundf("no user record for %s", identifier)
	}
	return domain.Account{UID: a.uid, Identifier: identifier}, nil
}

// CreateAccount adds a new account or fails with already exists
func (d *Dir) CreateAccount(ctx context.Context, identifier, secret string) (domain.Account, error) {
	defer d.enter()()
	d.creates.Add(1)
	if err := ctx.Err(); err != nil {
		return domain.Account{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "create canceled")
	}
	if h := d.hooks.BeforeCreate; h != nil {
		if err := h(identifier); err != nil {
			return domain.Account{}, err
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byEmail[identifier]; ok {
		return domain.Account{}, perr.AlreadyExistsf("user %s already exists", identifier)
	}
	a := account{uid: d.newUID(), secret: secret}
	d.byEmail[identifier] = a
	return domain.Account{UID: a.uid, Identifier: identifier}, nil
}

// MergeClaims merges claims into the account with uid
func (d *Dir) MergeClaims(_ context.Context, uid string, claims map[string]any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, a := range d.byEmail {
		if a.uid != uid {
			continue
		}
		if a.claims == nil {
			a.claims = map[string]any{}
		}
		maps.Copy(a.claims, claims)
		d.byEmail[k] = a
		return nil
	}
	return perr.NotFoundf("no user record for uid %s", uid)
}

// Claims returns a copy of the claims on identifier
func (d *Dir) Claims(identifier string) map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return maps.Clone(d.byEmail[identifier].claims)
}

// Len returns the number of accounts
func (d *Dir) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.byEmail)
}

// Calls returns how many lookups and creates were attempted
func (d *Dir) Calls() (lookups, creates int64) { return d.lookups.Load(), d.creates.Load() }

// PeakInFlight is the highest number of concurrent calls observed
func (d *Dir) PeakInFlight() int64 { return d.peak.Load() }

func (d *Dir) enter() func() {
	n := d.inflight.Add(1)
	for {
		p := d.peak.Load()
		if n <= p || d.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return func() { d.inflight.Add(-1) }
}
