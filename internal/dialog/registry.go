package dialog

import (
	"sync"

	"github.com/tripweaver/tripweaver/internal/models"
)

// Registry is the process-wide session map keyed by chat ID. A single coarse
// lock guards the map; callers work on snapshots and commit the result, so
// the lock is never held across storage or notification I/O. Different chats
// never block each other for longer than a map access.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*models.DialogSession
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]*models.DialogSession)}
}

// Create installs a fresh session for chatID at the given step, replacing any
// existing session for that chat.
func (r *Registry) Create(chatID int64, cmd models.Command, step models.Step) *models.DialogSession {
	session := &models.DialogSession{
		ChatID:      chatID,
		Command:     cmd,
		CurrentStep: step,
		Data:        make(map[models.DataKey]string),
	}
	r.mu.Lock()
	r.sessions[chatID] = session
	r.mu.Unlock()
	return session.Clone()
}

// Snapshot returns a deep copy of the chat's session, if one exists.
func (r *Registry) Snapshot(chatID int64) (*models.DialogSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[chatID]
	if !ok {
		return nil, false
	}
	return session.Clone(), true
}

// Commit stores the session back into the registry. The commit is dropped if
// the session was removed or replaced while the caller worked on its snapshot.
func (r *Registry) Commit(session *models.DialogSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.sessions[session.ChatID]
	if !ok || current.Command != session.Command {
		return
	}
	r.sessions[session.ChatID] = session.Clone()
}

// Remove destroys the chat's session. Removing an absent session is a no-op.
func (r *Registry) Remove(chatID int64) {
	r.mu.Lock()
	delete(r.sessions, chatID)
	r.mu.Unlock()
}

// CurrentStep returns the chat's current dialog step, if a session exists.
func (r *Registry) CurrentStep(chatID int64) (models.Step, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[chatID]
	if !ok {
		return "", false
	}
	return session.CurrentStep, true
}
