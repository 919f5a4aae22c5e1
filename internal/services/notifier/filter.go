package notifier

import (
	"sync"
	"time"

	"github.com/vigild/vigil/internal/domain/account"
)

const DefaultCooldown = 30 * time.Second

// Filter is the per-account cooldown gate. The first message for an
// account opens a window during which further messages are persisted
// but not notified. Check-and-set is atomic under one mutex, so two
// concurrent calls for the same account cannot both pass.
type Filter struct {
	mu     sync.Mutex
	expiry map[account.ID]time.Time
	window time.Duration
	now    func() time.Time
}

func NewFilter(window time.Duration) *Filter {
	if window <= 0 {
		window = DefaultCooldown
	}
	return &Filter{
		expiry: make(map[account.ID]time.Time),
		window: window,
		now:    time.Now,
	}
}

// ShouldNotify reports whether a notification may be sent now, and if
// so, starts the account's cooldown window.
func (f *Filter) ShouldNotify(id account.ID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	f.cleanupLocked(now)

	if _, live := f.expiry[id]; live {
		return false
	}
	f.expiry[id] = now.Add(f.window)
	return true
}

// cleanupLocked drops expired entries; called with f.mu held.
func (f *Filter) cleanupLocked(now time.Time) {
	for id, exp := range f.expiry {
		if !now.Before(exp) {
			delete(f.expiry, id)
		}
	}
}
