// Package notification implements the client-held unread tracker. The
// server pushes notification events; which of them count as unread is
// entirely the client's business, driven by what the user is looking at.
package notification

import (
	"sync"

	"dm-lab/domain"
)

// Tracker accumulates unread notifications grouped by conversation.
// A notification for the conversation currently on screen is suppressed at
// record time: the user is already reading it. Safe for concurrent use;
// the feed goroutine records while the UI reads.
type Tracker struct {
	mu      sync.Mutex
	viewing string
	unread  map[string][]domain.Message
}

func NewTracker() *Tracker {
	return &Tracker{unread: make(map[string][]domain.Message)}
}

// SetViewing declares the conversation currently displayed and clears its
// pending notifications; opening a conversation reads it. An empty ID means
// no conversation is on screen.
func (t *Tracker) SetViewing(conversationID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.viewing = conversationID
	if conversationID != "" {
		delete(t.unread, conversationID)
	}
}

// Record registers one incoming notification, unless it belongs to the
// conversation being viewed. Reports whether the notification was kept.
func (t *Tracker) Record(message domain.Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if message.ConversationID == t.viewing {
		return false
	}
	t.unread[message.ConversationID] = append(t.unread[message.ConversationID], message)
	return true
}

// Acknowledge removes exactly one pending notification by message id.
// Unknown ids are a no-op; the notification may already have been cleared
// by opening its conversation.
func (t *Tracker) Acknowledge(messageID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for conversationID, messages := range t.unread {
		for i, message := range messages {
			if message.ID != messageID {
				continue
			}
			remaining := append(messages[:i:i], messages[i+1:]...)
			if len(remaining) == 0 {
				delete(t.unread, conversationID)
			} else {
				t.unread[conversationID] = remaining
			}
			return
		}
	}
}

// AcknowledgeAll clears the unread notifications of one conversation.
func (t *Tracker) AcknowledgeAll(conversationID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.unread, conversationID)
}

// Clear drops everything.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unread = make(map[string][]domain.Message)
}

// UnreadByConversation returns the pending notifications of one
// conversation in arrival order.
func (t *Tracker) UnreadByConversation(conversationID string) []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Message, len(t.unread[conversationID]))
	copy(out, t.unread[conversationID])
	return out
}

// Unread returns the per-conversation unread counts.
func (t *Tracker) Unread() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := make(map[string]int, len(t.unread))
	for conversationID, messages := range t.unread {
		counts[conversationID] = len(messages)
	}
	return counts
}

// Count returns the total number of pending notifications.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, messages := range t.unread {
		total += len(messages)
	}
	return total
}
