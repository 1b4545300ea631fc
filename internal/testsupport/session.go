package testsupport

import (
	"context"
	"sync"

	"class360/internal/capture"
)

// StubSession is a capture.Session that never spawns a process.
type StubSession struct {
	mu         sync.Mutex
	outputPath string
	alive      bool
	done       chan struct{}
}

func (s *StubSession) Start(context.Context) error {
	s.mu.Lock()
	s.alive = true
	s.mu.Unlock()
	return nil
}

func (s *StubSession) Stop(context.Context) error {
	s.Exit()
	return nil
}

// Exit simulates the capture process terminating on its own.
func (s *StubSession) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.alive {
		return
	}
	s.alive = false
	close(s.done)
}

func (s *StubSession) IsAlive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

func (s *StubSession) OutputPath() string    { return s.outputPath }
func (s *StubSession) Done() <-chan struct{} { return s.done }

// StubSessionFactory builds StubSessions and retains them for inspection.
type StubSessionFactory struct {
	mu       sync.Mutex
	sessions []*StubSession
}

func (f *StubSessionFactory) NewSession(_, outputPath string) capture.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	session := &StubSession{outputPath: outputPath, done: make(chan struct{})}
	f.sessions = append(f.sessions, session)
	return session
}

// Last returns the most recently built session, or nil.
func (f *StubSessionFactory) Last() *StubSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sessions) == 0 {
		return nil
	}
	return f.sessions[len(f.sessions)-1]
}
