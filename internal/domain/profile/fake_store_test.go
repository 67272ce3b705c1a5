package profile

import (
	"context"
	"sync"
)

// fakeStore is an in-memory Store with failure injection and write gating.
type fakeStore struct {
	mu       sync.Mutex
	records  map[string]Record
	readErr  error
	writeErr error
	reads    int
	updates  []Update

	// when set, UpdateOne signals writeStarted and blocks until writeGate is closed
	writeGate    chan struct{}
	writeStarted chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]Record)}
}

func (s *fakeStore) put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec.Clone()
}

func (s *fakeStore) setReadErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

func (s *fakeStore) setWriteErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

func (s *fakeStore) gateWrites() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeGate = make(chan struct{})
	s.writeStarted = make(chan struct{}, 8)
}

func (s *fakeStore) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *fakeStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

func (s *fakeStore) lastUpdate() Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates[len(s.updates)-1]
}

func (s *fakeStore) ReadOne(_ context.Context, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.readErr != nil {
		return nil, s.readErr
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	out := rec.Clone()
	return &out, nil
}

func (s *fakeStore) UpdateOne(_ context.Context, id string, u Update) error {
	s.mu.Lock()
	s.updates = append(s.updates, u)
	gate, started := s.writeGate, s.writeStarted
	s.mu.Unlock()

	if gate != nil {
		started <- struct{}{}
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	rec := s.records[id]
	rec.ID = id
	rec.FullName = u.FullName
	rec.Phone = u.Phone
	rec.DateOfBirth = u.DateOfBirth
	rec.Address = u.Address
	rec.City = u.City
	rec.State = u.State
	rec.ZipCode = u.ZipCode
	s.records[id] = rec.Clone()
	return nil
}
