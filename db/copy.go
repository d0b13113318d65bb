package db

import (
	"context"
	"fmt"
)

// CopyNotes copies every note from src into dst in a single transaction on
// dst. It returns the number of notes written.
func CopyNotes(ctx context.Context, src NoteStore, dst *GormStore) (int, error) {
	notes, err := src.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("read source notes: %w", err)
	}
	if len(notes) == 0 {
		return 0, nil
	}
	n, err := dst.Import(ctx, notes)
	if err != nil {
		return 0, fmt.Errorf("write target notes: %w", err)
	}
	return n, nil
}
