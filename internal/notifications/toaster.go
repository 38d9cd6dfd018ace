package notifications

import (
	"sync"
	"time"
)

const (
	MaxToasts           = 3
	DefaultToastTTL     = 5 * time.Second
	DefaultToastStagger = 500 * time.Millisecond
)

// Toast is a high priority notification on screen until ExpiresAt.
type Toast struct {
	Notification Notification
	ExpiresAt    time.Time
}

// Toaster keeps at most MaxToasts visible. Each new toast expires one
// stagger later than the one shown before it, so a burst does not vanish
// all at once. When full, the oldest toast makes room.
type Toaster struct {
	mu      sync.Mutex
	ttl     time.Duration
	stagger time.Duration
	now     func() time.Time
	active  []Toast
}

func NewToaster(ttl, stagger time.Duration) *Toaster {
	if ttl <= 0 {
		ttl = DefaultToastTTL
	}
	if stagger < 0 {
		stagger = 0
	}
	return &Toaster{ttl: ttl, stagger: stagger, now: time.Now}
}

// Offer shows n when it is high priority and reports whether it did.
func (t *Toaster) Offer(n Notification) bool {
	if n.Priority != PriorityHigh {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.prune(now)
	if len(t.active) >= MaxToasts {
		t.active = t.active[1:]
	}
	expires := now.Add(t.ttl)
	if len(t.active) > 0 {
		if staggered := t.active[len(t.active)-1].ExpiresAt.Add(t.stagger); staggered.After(expires) {
			expires = staggered
		}
	}
	t.active = append(t.active, Toast{Notification: n, ExpiresAt: expires})
	return true
}

// Dismiss removes the toast of notification id.
func (t *Toaster) Dismiss(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, toast := range t.active {
		if toast.Notification.ID == id {
			t.active = append(t.active[:i], t.active[i+1:]...)
			return
		}
	}
}

// Active returns the visible toasts, oldest first.
func (t *Toaster) Active() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prune(t.now())
	return append([]Toast(nil), t.active...)
}

// prune must be called with mu held.
func (t *Toaster) prune(now time.Time) {
	kept := t.active[:0]
	for _, toast := range t.active {
		if now.Before(toast.ExpiresAt) {
			kept = append(kept, toast)
		}
	}
	t.active = kept
}
