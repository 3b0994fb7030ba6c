// Package registry owns the canonical token sets: unverified candidates,
// active positions, and closed history. Every lifecycle transition goes
// through a Registry method; no other component holds its own copy of a set.
package registry

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/benhexie/sol-sniper/internal/domain"
)

// Rejection reasons surfaced when Discover refuses a candidate.
var (
	ErrAlreadyTracked = errors.New("mint already tracked")
	ErrAtCapacity     = errors.New("candidate set at capacity")
)

// Registry holds the three lifecycle sets. A mint lives in at most one of
// unverified and active at any time, and appears at most once in history.
type Registry struct {
	mu sync.Mutex

	maxUnverified int
	maxActive     int

	unverified map[string]*domain.Token
	active     map[string]*domain.Token
	history    map[string]*domain.ClosedTrade
	historyLog []*domain.ClosedTrade // append order preserved for reporting

	// closing marks mints with a sell already in flight so a milestone
	// exit and the stagnation sweep cannot both fire for the same token.
	closing map[string]struct{}
}

// New creates a registry with the given capacity bounds.
func New(maxUnverified, maxActive int) *Registry {
	return &Registry{
		maxUnverified: maxUnverified,
		maxActive:     maxActive,
		unverified:    make(map[string]*domain.Token),
		active:        make(map[string]*domain.Token),
		history:       make(map[string]*domain.ClosedTrade),
		closing:       make(map[string]struct{}),
	}
}

// Discover inserts a new candidate into the unverified set. It refuses
// duplicates of any tracked mint and inserts nothing once the unverified
// set is full.
func (r *Registry) Discover(tok *domain.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[tok.Mint]; ok {
		return ErrAlreadyTracked
	}
	if _, ok := r.unverified[tok.Mint]; ok {
		return ErrAlreadyTracked
	}
	if len(r.unverified) >= r.maxUnverified {
		return ErrAtCapacity
	}
	r.unverified[tok.Mint] = tok
	return nil
}

// Promote moves a token from unverified to active. When the active set is
// full it first drops actives whose mint is already closed in history; if
// still full the promotion is a silent no-op and the candidate stays where
// it was. Returns true when the token became active.
func (r *Registry) Promote(mint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	tok, ok := r.unverified[mint]
	if !ok {
		return false
	}
	if len(r.active) >= r.maxActive {
		r.sweepFinishedLocked()
	}
	if len(r.active) >= r.maxActive {
		return false
	}
	delete(r.unverified, mint)
	r.active[mint] = tok
	return true
}

// sweepFinishedLocked removes actives whose mint already appears in history.
func (r *Registry) sweepFinishedLocked() {
	for mint := range r.active {
		if _, done := r.history[mint]; done {
			delete(r.active, mint)
			delete(r.closing, mint)
		}
	}
}

// BeginClose claims the single close slot for a mint. Exactly one caller
// per mint observes true; everyone else backs off. The claim is released
// only by Close or Reopen.
func (r *Registry) BeginClose(mint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[mint]; !ok {
		return false
	}
	if _, inFlight := r.closing[mint]; inFlight {
		return false
	}
	r.closing[mint] = struct{}{}
	return true
}

// Reopen releases a BeginClose claim without closing, used when a sell
// attempt is abandoned and the position should stay active.
func (r *Registry) Reopen(mint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.closing, mint)
}

// Close moves an active token into history with the given outcome. The
// append is idempotent: a mint already recorded is skipped so racing close
// paths can never double-count a trade. Returns the history record, or nil
// when the close was a duplicate.
func (r *Registry) Close(tok *domain.Token, outcome string, now time.Time) *domain.ClosedTrade {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.active, tok.Mint)
	delete(r.closing, tok.Mint)

	if _, dup := r.history[tok.Mint]; dup {
		return nil
	}
	tok.CloseOutcome = outcome
	rec := domain.NewClosedTrade(tok, now)
	r.history[tok.Mint] = rec
	r.historyLog = append(r.historyLog, rec)
	return rec
}

// Rollback removes an active token without a history record, undoing a
// speculative promotion after the execution gateway refused the buy.
func (r *Registry) Rollback(mint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, mint)
	delete(r.closing, mint)
}

// EvictUnverified drops a candidate with no historical record. Used for
// safety-filter rejections and age-outs, which never become trades.
func (r *Registry) EvictUnverified(mint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.unverified, mint)
}

// Unverified returns the candidate for a mint, or nil.
func (r *Registry) Unverified(mint string) *domain.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unverified[mint]
}

// Active returns the active position for a mint, or nil.
func (r *Registry) Active(mint string) *domain.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[mint]
}

// InHistory reports whether a mint was already closed.
func (r *Registry) InHistory(mint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.history[mint]
	return ok
}

// AllMints returns the union of unverified and active mints, sorted. This
// feeds the trade re-subscription after a feed reconnect.
func (r *Registry) AllMints() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	mints := make([]string, 0, len(r.unverified)+len(r.active))
	for mint := range r.unverified {
		mints = append(mints, mint)
	}
	for mint := range r.active {
		mints = append(mints, mint)
	}
	sort.Strings(mints)
	return mints
}

// ActiveTokens returns a snapshot slice of the active positions, sorted by
// discovery time for stable display.
func (r *Registry) ActiveTokens() []*domain.Token {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.Token, 0, len(r.active))
	for _, tok := range r.active {
		out = append(out, tok)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// StaleActive returns actives whose last tick is older than the cutoff and
// that do not already have a sell price recorded.
func (r *Registry) StaleActive(cutoff time.Time) []*domain.Token {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Token
	for _, tok := range r.active {
		if tok.SellPrice == 0 && tok.LastUpdate.Before(cutoff) {
			out = append(out, tok)
		}
	}
	return out
}

// History returns the closed trades in append order.
func (r *Registry) History() []*domain.ClosedTrade {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.ClosedTrade, len(r.historyLog))
	copy(out, r.historyLog)
	return out
}

// UnverifiedLen reports the size of the unverified set.
func (r *Registry) UnverifiedLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.unverified)
}

// ActiveLen reports the size of the active set.
func (r *Registry) ActiveLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
