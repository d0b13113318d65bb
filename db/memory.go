package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"smart-notes/models"
)

// MemoryStore keeps notes in process memory. It is used when no database
// url is configured and is lost on restart.
type MemoryStore struct {
	mu     sync.Mutex
	notes  map[uint]models.Note
	nextID uint
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{notes: make(map[uint]models.Note), nextID: 1, now: utcNow}
}

func (s *MemoryStore) Kind() string { return "memory" }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) List(_ context.Context) ([]models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Note, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, n)
	}
	sortByUpdated(out)
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, in models.NoteInput) (models.Note, error) {
	note, err := models.FromTransport(in)
	if err != nil {
		return models.Note{}, &PersistenceError{Op: "create", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	note.ID = s.nextID
	s.nextID++
	note.UpdatedAt = s.now()
	s.notes[note.ID] = note
	return note, nil
}

func (s *MemoryStore) Get(_ context.Context, id uint) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok {
		return models.Note{}, ErrNotFound
	}
	return n, nil
}

func (s *MemoryStore) Update(_ context.Context, id uint, in models.NoteInput) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok {
		return models.Note{}, ErrNotFound
	}
	// work on a copy so a rejected payload leaves the stored note as it was
	if err := models.ApplyUpdate(&n, in); err != nil {
		return models.Note{}, &PersistenceError{Op: "update", Err: err}
	}
	n.UpdatedAt = nextUpdatedAt(s.now(), n.UpdatedAt)
	s.notes[id] = n
	return n, nil
}

func (s *MemoryStore) Delete(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		return ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

func (s *MemoryStore) Search(_ context.Context, q string) ([]models.Note, error) {
	out := []models.Note{}
	if q == "" {
		return out, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notes {
		if matches(n, q) {
			out = append(out, n)
		}
	}
	sortByUpdated(out)
	return out, nil
}

func sortByUpdated(notes []models.Note) {
	sort.Slice(notes, func(i, j int) bool {
		if !notes[i].UpdatedAt.Equal(notes[j].UpdatedAt) {
			return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
		}
		return notes[i].ID > notes[j].ID
	})
}
