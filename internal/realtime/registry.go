package realtime

import (
	"sync"
	"time"
)

// Registry is the process-scoped session table for the gateway. It is
// constructed once at startup and passed by handle; there are no
// package-level registries. All state here is ephemeral: it vanishes
// with the process and is rebuilt as clients reconnect.
type Registry struct {
	mu sync.RWMutex

	// socket id -> connected user
	users map[string]string
	// socket id -> set of joined chat ids
	joined map[string]map[string]bool
	// chat id -> set of socket ids (fan-out multimap)
	subscribers map[string]map[string]bool
	// "chatId|userId" -> last typing emit, for throttling
	lastTyping map[string]time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		users:       make(map[string]string),
		joined:      make(map[string]map[string]bool),
		subscribers: make(map[string]map[string]bool),
		lastTyping:  make(map[string]time.Time),
	}
}

// Connect records an authenticated session.
func (r *Registry) Connect(sessionID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[sessionID] = userID
	r.joined[sessionID] = make(map[string]bool)
}

// UserOf returns the user bound to a session at connect time.
func (r *Registry) UserOf(sessionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.users[sessionID]
	return userID, ok
}

// Join subscribes a session to a chat. Idempotent per session.
func (r *Registry) Join(sessionID, chatID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[sessionID]; !ok {
		return
	}
	r.joined[sessionID][chatID] = true
	if r.subscribers[chatID] == nil {
		r.subscribers[chatID] = make(map[string]bool)
	}
	r.subscribers[chatID][sessionID] = true
}

// Leave unsubscribes a session from a chat.
func (r *Registry) Leave(sessionID, chatID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if chats, ok := r.joined[sessionID]; ok {
		delete(chats, chatID)
	}
	if subs, ok := r.subscribers[chatID]; ok {
		delete(subs, sessionID)
		if len(subs) == 0 {
			delete(r.subscribers, chatID)
		}
	}
	if userID, ok := r.users[sessionID]; ok {
		delete(r.lastTyping, typingKey(chatID, userID))
	}
}

// IsJoined reports whether the session currently subscribes to chatID.
func (r *Registry) IsJoined(sessionID, chatID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chats, ok := r.joined[sessionID]
	return ok && chats[chatID]
}

// Subscribers returns a snapshot of the sessions joined to a chat.
func (r *Registry) Subscribers(chatID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs := make([]string, 0, len(r.subscribers[chatID]))
	for id := range r.subscribers[chatID] {
		subs = append(subs, id)
	}
	return subs
}

// AllowTyping throttles typing events per (chat, user): at most one
// emit per interval. The recorded state expires naturally, the rest is
// cleared on leave/disconnect.
func (r *Registry) AllowTyping(chatID, userID string, interval time.Duration) bool {
	key := typingKey(chatID, userID)
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	if last, ok := r.lastTyping[key]; ok && now.Sub(last) < interval {
		return false
	}
	r.lastTyping[key] = now
	return true
}

// ClearTyping drops the typing state for an explicit stop event.
func (r *Registry) ClearTyping(chatID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lastTyping, typingKey(chatID, userID))
}

// Disconnect removes a session from every chat it joined and clears
// its typing state. Returns the user id and the chats the session was
// subscribed to, so the gateway can broadcast stop-typing events.
func (r *Registry) Disconnect(sessionID string) (string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID := r.users[sessionID]
	var chats []string
	for chatID := range r.joined[sessionID] {
		chats = append(chats, chatID)
		if subs, ok := r.subscribers[chatID]; ok {
			delete(subs, sessionID)
			if len(subs) == 0 {
				delete(r.subscribers, chatID)
			}
		}
		delete(r.lastTyping, typingKey(chatID, userID))
	}
	delete(r.joined, sessionID)
	delete(r.users, sessionID)
	return userID, chats
}

func typingKey(chatID, userID string) string {
	return chatID + "|" + userID
}
