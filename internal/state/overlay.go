// Package state tracks what moderation has done to the chat after the fact.
// Events coming off the session are immutable; instead of rewriting message
// history, an overlay records which message ids were deleted and which user
// ids were banned, and the view layer consults it at render time.
package state

import (
	"sync"

	"github.com/theplebdev/tmichat/internal/irc"
)

// Overlay is the moderation status index. Safe for concurrent use.
type Overlay struct {
	mu         sync.RWMutex
	deletedIDs map[string]struct{}
	bannedIDs  map[string]int
	clearGen   uint64
}

// NewOverlay creates an empty Overlay.
func NewOverlay() *Overlay {
	return &Overlay{
		deletedIDs: make(map[string]struct{}),
		bannedIDs:  make(map[string]int),
	}
}

// Apply folds a moderation event into the index and reports whether the event
// changed anything. Non-moderation events are ignored.
func (o *Overlay) Apply(event irc.Event) bool {
	switch ev := event.(type) {
	case *irc.ClearMessage:
		if ev.TargetMsgID == "" {
			return false
		}
		o.mu.Lock()
		o.deletedIDs[ev.TargetMsgID] = struct{}{}
		o.mu.Unlock()
		return true

	case *irc.ClearChatBan:
		if ev.TargetUserID == "" {
			return false
		}
		o.mu.Lock()
		o.bannedIDs[ev.TargetUserID] = ev.BanDuration
		o.mu.Unlock()
		return true

	case *irc.ClearChatAll:
		o.mu.Lock()
		o.clearGen++
		o.deletedIDs = make(map[string]struct{})
		o.bannedIDs = make(map[string]int)
		o.mu.Unlock()
		return true

	default:
		return false
	}
}

// Deleted reports whether the message with the given id was removed by a
// moderator.
func (o *Overlay) Deleted(msgID string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.deletedIDs[msgID]
	return ok
}

// Banned reports whether the user is banned or timed out, and the timeout
// duration in seconds. A zero duration with ok true is a permanent ban.
func (o *Overlay) Banned(userID string) (duration int, ok bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	duration, ok = o.bannedIDs[userID]
	return duration, ok
}

// Hidden reports whether a message should be suppressed at render time,
// either because it was deleted or because its author was banned.
func (o *Overlay) Hidden(msg *irc.UserMessage) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if _, ok := o.deletedIDs[msg.ID]; ok {
		return true
	}
	_, ok := o.bannedIDs[msg.UserID]
	return ok
}

// ClearGeneration increments every time the whole room is wiped. Views
// compare it against the generation a message was rendered under to decide
// whether the message predates the last full clear.
func (o *Overlay) ClearGeneration() uint64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.clearGen
}
