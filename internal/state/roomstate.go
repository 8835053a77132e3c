package state

import (
	"sync"

	"github.com/theplebdev/tmichat/internal/irc"
)

// Room is the merged view of the channel's mode flags. ROOMSTATE deltas only
// carry the keys that changed, so absent keys keep their previous values.
type Room struct {
	mu         sync.RWMutex
	slow       bool
	follower   bool
	subscriber bool
	emote      bool
}

// NewRoom creates a Room with all modes off.
func NewRoom() *Room {
	return &Room{}
}

// Merge folds a ROOMSTATE delta into the room. Nil fields are untouched.
func (r *Room) Merge(ev *irc.RoomState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ev.Slow != nil {
		r.slow = *ev.Slow
	}
	if ev.Follower != nil {
		r.follower = *ev.Follower
	}
	if ev.Subscriber != nil {
		r.subscriber = *ev.Subscriber
	}
	if ev.Emote != nil {
		r.emote = *ev.Emote
	}
}

// Modes returns the current flags as one snapshot.
func (r *Room) Modes() (slow, follower, subscriber, emote bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slow, r.follower, r.subscriber, r.emote
}
