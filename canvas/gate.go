package canvas

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of a cooldown check.
type Decision struct {
	Admitted  bool
	Remaining time.Duration
}

// SeedFunc recovers a user's last accepted draw, typically from the
// provenance log after a restart.
type SeedFunc func(ctx context.Context, user string) (time.Time, bool, error)

type userDrawState struct {
	mu     sync.Mutex
	seeded bool
	has    bool
	last   time.Time
}

// DrawGate tracks the last accepted draw of every user. Each user has its
// own lock; the table lock is only held to find or create the entry.
type DrawGate struct {
	mu    sync.Mutex
	users map[string]*userDrawState
	seed  SeedFunc
}

func NewDrawGate(seed SeedFunc) *DrawGate {
	return &DrawGate{
		users: make(map[string]*userDrawState),
		seed:  seed,
	}
}

func (g *DrawGate) entry(user string) *userDrawState {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.users[user]
	if !ok {
		st = &userDrawState{}
		g.users[user] = st
	}
	return st
}

// load must be called with st.mu held.
func (g *DrawGate) load(ctx context.Context, user string, st *userDrawState) error {
	if st.seeded || g.seed == nil {
		st.seeded = true
		return nil
	}
	last, ok, err := g.seed(ctx, user)
	if err != nil {
		return storeErr("seed draw gate", err)
	}
	// A record made while seeding wins over the stored value.
	if ok && (!st.has || last.After(st.last)) {
		st.last, st.has = last, true
	}
	st.seeded = true
	return nil
}

func decide(st *userDrawState, now time.Time, minDelay time.Duration) Decision {
	if !st.has {
		return Decision{Admitted: true}
	}
	elapsed := now.Sub(st.last)
	if elapsed >= minDelay {
		return Decision{Admitted: true}
	}
	return Decision{Remaining: minDelay - elapsed}
}

// TryAdmit reports whether user may draw at now. It records nothing.
func (g *DrawGate) TryAdmit(ctx context.Context, user string, now time.Time, minDelay time.Duration) (Decision, error) {
	st := g.entry(user)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := g.load(ctx, user, st); err != nil {
		return Decision{}, err
	}
	return decide(st, now, minDelay), nil
}

// RecordAdmission stores ts as the user's last accepted draw.
func (g *DrawGate) RecordAdmission(user string, ts time.Time) {
	st := g.entry(user)
	st.mu.Lock()
	st.last, st.has = ts, true
	st.mu.Unlock()
}

// Admit checks and records in one step under the user's lock, so two
// concurrent attempts by the same user can never both be admitted inside
// one cooldown window.
func (g *DrawGate) Admit(ctx context.Context, user string, now time.Time, minDelay time.Duration) (Decision, error) {
	st := g.entry(user)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := g.load(ctx, user, st); err != nil {
		return Decision{}, err
	}
	d := decide(st, now, minDelay)
	if d.Admitted {
		st.last, st.has = now, true
	}
	return d, nil
}
