package runtime

import (
	"sync"

	"dm-lab/contract"
)

type Set map[string]struct{}

type session struct {
	userID string
	focus  string // conversation currently on screen, empty when none
	sink   contract.EventSink
}

// Registry is the live-session directory. Sessions are keyed by a
// per-connection ID so one user can hold several at once (phone and
// desktop); userSessions is the reverse index used at fan-out time.
type Registry struct {
	mu           sync.RWMutex
	sessions     map[string]*session
	userSessions map[string]Set // map user -> session IDs
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:     make(map[string]*session),
		userSessions: make(map[string]Set),
	}
}

// Subscribe registers a session's connection under its owning user.
// If the user has no other live session, their reverse-index entry is
// initialized on the fly.
func (r *Registry) Subscribe(sessionID, userID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[sessionID] = &session{userID: userID, sink: sink}

	if _, ok := r.userSessions[userID]; !ok {
		r.userSessions[userID] = make(Set)
	}
	r.userSessions[userID][sessionID] = struct{}{}
}

// Unsubscribe removes a session and cleans up the reverse index.
// No empty sets are left behind to prevent memory leaks over time.
func (r *Registry) Unsubscribe(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(r.sessions, sessionID)

	if ids, ok := r.userSessions[s.userID]; ok {
		delete(ids, sessionID)
		if len(ids) == 0 {
			delete(r.userSessions, s.userID)
		}
	}
}

// SetFocus records which conversation a session is currently viewing.
// An empty conversationID clears the focus. Unknown sessions are ignored;
// a focus frame can race with a disconnect.
func (r *Registry) SetFocus(sessionID, conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[sessionID]; ok {
		s.focus = conversationID
	}
}

// SinksForUser resolves every live sink a user holds.
// Returns nil if the user has no active session.
func (r *Registry) SinksForUser(userID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.userSessions[userID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for sessionID := range ids {
		if s, exists := r.sessions[sessionID]; exists {
			activeSinks = append(activeSinks, s.sink)
		}
	}
	return activeSinks
}

// SinksForUserAway resolves a user's sinks excluding sessions focused on
// the given conversation. Notifications skip sessions already looking at
// the message; those sessions still get it on the message channel.
func (r *Registry) SinksForUserAway(userID, conversationID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.userSessions[userID]
	if !ok {
		return nil
	}
	var awaySinks []contract.EventSink
	for sessionID := range ids {
		s, exists := r.sessions[sessionID]
		if !exists || s.focus == conversationID {
			continue
		}
		awaySinks = append(awaySinks, s.sink)
	}
	return awaySinks
}
