package llm

import (
	"context"
	"fmt"
)

// Unavailable stands in for a Client that could not be constructed. Every
// call fails with the construction error.
type Unavailable struct {
	Err error
}

func (u Unavailable) Translate(context.Context, string, string, string) (Translation, error) {
	return Translation{}, fmt.Errorf("%w: %w", ErrTranslationFailed, u.Err)
}

func (u Unavailable) GenerateStructuredNote(context.Context, string, string) (GeneratedNote, error) {
	return GeneratedNote{}, fmt.Errorf("%w: %w", ErrNoteGenerationFailed, u.Err)
}
