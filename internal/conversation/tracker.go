package conversation

import (
	"strings"
	"sync"
	"time"
)

const (
	// DefaultWindow is how long a sender's exchange stays live for
	// follow-up messages.
	DefaultWindow = 5 * time.Minute
	// maxHistory bounds the per-sender message history, oldest dropped
	// first.
	maxHistory = 5
)

// Entry is the per-sender memory of the last answered exchange.
type Entry struct {
	Channel      int
	LastResponse string
	RespondedAt  time.Time
	// History holds the sender's recent message texts, most recent last.
	History []string
}

// Tracker keeps short-lived conversation state per sender so follow-up
// messages can be answered without an explicit mention. Entries expire
// lazily at read time; there is no sweeper.
type Tracker struct {
	window time.Duration

	mu      sync.RWMutex
	entries map[string]Entry

	now func() time.Time
}

func NewTracker(window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{
		window:  window,
		entries: map[string]Entry{},
		now:     time.Now,
	}
}

// Record stores the response just sent to a sender, appending the triggering
// message text to the bounded history.
func (t *Tracker) Record(senderID string, channel int, responseText, messageText string) {
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entries[senderID]
	e.Channel = channel
	e.LastResponse = responseText
	e.RespondedAt = t.now()
	if msg := strings.TrimSpace(messageText); msg != "" {
		e.History = append(e.History, msg)
		if len(e.History) > maxHistory {
			e.History = e.History[len(e.History)-maxHistory:]
		}
	}
	t.entries[senderID] = e
}

// FollowUpContext returns the sender's entry while it is still inside the
// follow-up window and on the same channel. An entry at exactly the window
// boundary is still live; one instant past it is treated as absent and
// deleted.
func (t *Tracker) FollowUpContext(senderID string, channel int) (Entry, bool) {
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return Entry{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[senderID]
	if !ok {
		return Entry{}, false
	}
	if t.now().Sub(e.RespondedAt) > t.window {
		delete(t.entries, senderID)
		return Entry{}, false
	}
	if e.Channel != channel {
		return Entry{}, false
	}
	return e, true
}

// Len reports the number of tracked senders, expired entries included until
// their next read.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
