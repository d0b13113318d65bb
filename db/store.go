package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"smart-notes/models"
)

// ErrNotFound is returned when no note has the requested id.
var ErrNotFound = errors.New("note not found")

// PersistenceError reports a rejected payload or a failed write. The
// transaction it ran in has been rolled back. Its message is the
// underlying error text.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

// NoteStore is the persistence gateway used by the HTTP handlers. Every
// method is a single unit of work.
type NoteStore interface {
	// List returns every note, most recently updated first.
	List(ctx context.Context) ([]models.Note, error)
	Create(ctx context.Context, in models.NoteInput) (models.Note, error)
	Get(ctx context.Context, id uint) (models.Note, error)
	// Update applies the fields present in the payload and refreshes
	// UpdatedAt.
	Update(ctx context.Context, id uint, in models.NoteInput) (models.Note, error)
	Delete(ctx context.Context, id uint) error
	// Search matches q as a substring of title or content, ignoring
	// ASCII case. An empty q matches nothing.
	Search(ctx context.Context, q string) ([]models.Note, error)
	// Kind names the backing engine: memory, sqlite, mysql or postgres.
	Kind() string
	Close() error
}

// nextUpdatedAt keeps UpdatedAt monotonic when the clock steps backwards.
func nextUpdatedAt(now, prev time.Time) time.Time {
	if now.Before(prev) {
		return prev
	}
	return now
}

// matches reports whether q is a substring of the title or content,
// ignoring ASCII case only. SQLite's LOWER folds nothing else, so every
// store uses the same rule.
func matches(n models.Note, q string) bool {
	q = asciiLower(q)
	return strings.Contains(asciiLower(n.Title), q) || strings.Contains(asciiLower(n.Content), q)
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func utcNow() time.Time { return time.Now().UTC() }
