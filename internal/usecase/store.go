package usecase

import (
	"sync"
	"time"
)

type storedConsole struct {
	console  *Console
	lastSeen time.Time
}

// ConsoleStore keeps one Console per browser session.
type ConsoleStore struct {
	mu         sync.Mutex
	consoles   map[string]*storedConsole
	newConsole func() *Console
	now        func() time.Time
}

func NewConsoleStore(newConsole func() *Console) *ConsoleStore {
	return &ConsoleStore{
		consoles:   make(map[string]*storedConsole),
		newConsole: newConsole,
		now:        time.Now,
	}
}

// Get returns the session's console, creating it on first use. created is
// true when a new console was made.
func (s *ConsoleStore) Get(sessionID string) (console *Console, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.consoles[sessionID]
	if !ok {
		sc = &storedConsole{console: s.newConsole()}
		s.consoles[sessionID] = sc
	}
	sc.lastSeen = s.now()
	return sc.console, !ok
}

// Reap drops consoles not used for longer than idle. Consoles with a load
// or save still running are kept.
func (s *ConsoleStore) Reap(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idle)
	reaped := 0
	for id, sc := range s.consoles {
		if sc.lastSeen.Before(cutoff) && !sc.console.Busy() {
			delete(s.consoles, id)
			reaped++
		}
	}
	return reaped
}

func (s *ConsoleStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.consoles)
}
