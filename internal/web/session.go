package web

import (
	"sync"
	"time"
)

// defaultAdminWindow is how long after the last authenticated admin action
// the session is still considered active.
const defaultAdminWindow = 10 * time.Minute

// adminSession tracks recent privileged activity.
//
// There is no login flow; the shared admin token authenticates each request.
// A "session" is simply the window following the last authenticated action,
// during which the auto-refresh scheduler holds off.
type adminSession struct {
	mu       sync.Mutex
	lastSeen time.Time
	window   time.Duration

	now func() time.Time // swappable for tests
}

func newAdminSession(window time.Duration) *adminSession {
	return &adminSession{window: window, now: time.Now}
}

// Touch records an authenticated admin action.
func (a *adminSession) Touch() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastSeen = a.now()
}

// Active reports whether the admin window is currently open.
func (a *adminSession) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastSeen.IsZero() {
		return false
	}
	return a.now().Sub(a.lastSeen) < a.window
}
