package httpclient

import (
	"net/http"
	"sync"
)

// sessionManager owns the connection context used by attempts. In session
// mode a single transport pool is shared by every request until close; in
// one-shot mode each attempt gets a fresh pool that is torn down with it.
//
// The manager adds no locking around the shared pool itself: concurrent use
// is governed by net/http's own safety guarantees. The mutex only guards
// lazy creation and release.
type sessionManager struct {
	useSession bool

	mu     sync.Mutex
	shared *http.Client
}

func newSessionManager(useSession bool) *sessionManager {
	return &sessionManager{useSession: useSession}
}

func newPooledClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &http.Client{Transport: transport}
}

// acquire returns the connection context for one attempt together with a
// release function that must be called when the attempt finishes, whichever
// branch it took.
func (s *sessionManager) acquire() (client *http.Client, release func()) {
	if !s.useSession {
		oneShot := newPooledClient()
		return oneShot, oneShot.CloseIdleConnections
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shared == nil {
		s.shared = newPooledClient()
	}
	return s.shared, func() {}
}

// close releases the shared connection context. It is idempotent and a no-op
// when no session was ever created. A request issued after close transparently
// opens a new session.
func (s *sessionManager) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shared != nil {
		s.shared.CloseIdleConnections()
		s.shared = nil
	}
}
