package auth

import "sync"

// StateChange is delivered to subscribers on every auth transition.
// Session is nil on sign-out.
type StateChange struct {
	UserID  string
	Session *SessionView
}

// SessionView is the subscriber-safe slice of a session: no token.
type SessionView struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Broadcaster fans auth-state transitions out to subscribers. Slow
// subscribers drop changes rather than block a sign-in.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan StateChange
	next int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan StateChange)}
}

// Subscribe returns a change channel and a cancel func. The channel
// is closed on cancel.
func (b *Broadcaster) Subscribe() (<-chan StateChange, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan StateChange, 8)
	b.subs[id] = ch
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (b *Broadcaster) publish(change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- change:
		default:
		}
	}
}
