package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"smart-notes/models"
)

var (
	ErrTranslationFailed    = errors.New("translation failed")
	ErrNoteGenerationFailed = errors.New("note generation failed")
)

const (
	fallbackTranslatedTitle = "Translated Note"
	fallbackGeneratedTitle  = "Generated Note"
	fallbackGeneratedTag    = "generated"
)

// Translation is a translated title and body.
type Translation struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// GeneratedNote is a note drafted from free text. EventDate and EventTime
// are normalized (YYYY-MM-DD, HH:MM:SS) or nil.
type GeneratedNote struct {
	Title     string
	Content   string
	Tags      []string
	EventDate *string
	EventTime *string
}

// Input converts the draft into a create payload.
func (g GeneratedNote) Input() models.NoteInput {
	tags := g.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.NoteInput{
		Title:     &g.Title,
		Content:   &g.Content,
		Tags:      &tags,
		EventDate: g.EventDate,
		EventTime: g.EventTime,
	}
}

const translatePrompt = `You are a professional translator. Translate the following text to %[1]s.

Rules:
1. Preserve the original meaning and style
2. If a title is provided, translate it concisely (≤5 words)
3. If no title is provided, generate a concise title (≤5 words) in %[1]s
4. Return ONLY a JSON object with "title" and "content" fields
5. Do not include any other text or explanations

Example response format:
{"title": "Translated Title", "content": "Translated content here..."}`

const generatePrompt = `You are a helpful assistant that creates structured notes from natural language descriptions.
Write the note in the language with code "%s".

Rules:
1. Generate a clear, concise title (≤10 words)
2. Create detailed, well-organized content
3. Suggest 2-4 relevant tags
4. If the input mentions a date/time, extract it
5. Return ONLY a JSON object with these fields:
   - title: string
   - content: string
   - tags: array of strings
   - event_date: string (YYYY-MM-DD format or null)
   - event_time: string (HH:MM format or null)

Example response:
{"title": "Meeting Notes", "content": "Detailed content...", "tags": ["work", "meeting"], "event_date": "2024-01-15", "event_time": "14:30"}`

// Translate translates text (and title, if any) into targetLang. A reply
// that is not the expected JSON is returned as the content, under the
// original title or "Translated Note".
func (c *Client) Translate(ctx context.Context, text, targetLang, title string) (Translation, error) {
	titleLine := title
	if titleLine == "" {
		titleLine = "None"
	}
	messages := []Message{
		{Role: "system", Content: fmt.Sprintf(translatePrompt, targetLang)},
		{Role: "user", Content: fmt.Sprintf("Title: %s\nContent: %s", titleLine, text)},
	}

	opts := DefaultOptions()
	opts.Temperature = 0.3
	res, err := c.Complete(ctx, messages, opts)
	if err != nil {
		return Translation{}, fmt.Errorf("%w: %w", ErrTranslationFailed, err)
	}

	var out Translation
	if err := decodeReply(res.Content, &out); err != nil {
		c.log.Warn().Err(err).Msg("translation reply is not JSON, using raw text")
		if title == "" {
			title = fallbackTranslatedTitle
		}
		return Translation{Title: title, Content: res.Content}, nil
	}
	return out, nil
}

type generatedReply struct {
	Title     *string   `json:"title"`
	Content   *string   `json:"content"`
	Tags      *[]string `json:"tags"`
	EventDate *string   `json:"event_date"`
	EventTime *string   `json:"event_time"`
}

// GenerateStructuredNote drafts a note from input. A reply that is not the
// expected JSON yields a note holding the raw input tagged "generated".
func (c *Client) GenerateStructuredNote(ctx context.Context, input, language string) (GeneratedNote, error) {
	if language == "" {
		language = "en"
	}
	messages := []Message{
		{Role: "system", Content: fmt.Sprintf(generatePrompt, language)},
		{Role: "user", Content: "Create a note from: " + input},
	}

	opts := DefaultOptions()
	opts.Temperature = 0.7
	res, err := c.Complete(ctx, messages, opts)
	if err != nil {
		return GeneratedNote{}, fmt.Errorf("%w: %w", ErrNoteGenerationFailed, err)
	}

	var reply generatedReply
	if err := decodeReply(res.Content, &reply); err != nil {
		c.log.Warn().Err(err).Msg("generated reply is not JSON, using input as content")
		return GeneratedNote{
			Title:   fallbackGeneratedTitle,
			Content: input,
			Tags:    []string{fallbackGeneratedTag},
		}, nil
	}

	note := GeneratedNote{Title: fallbackGeneratedTitle, Content: input, Tags: []string{}}
	if reply.Title != nil {
		note.Title = *reply.Title
	}
	if reply.Content != nil {
		note.Content = *reply.Content
	}
	if reply.Tags != nil {
		note.Tags = *reply.Tags
	}
	if reply.EventDate != nil {
		if d, err := models.NormalizeDate(*reply.EventDate); err == nil {
			note.EventDate = d
		} else {
			c.log.Warn().Err(err).Msg("dropping event date from generated note")
		}
	}
	if reply.EventTime != nil {
		if t, err := models.NormalizeTime(*reply.EventTime); err == nil {
			note.EventTime = t
		} else {
			c.log.Warn().Err(err).Msg("dropping event time from generated note")
		}
	}
	return note, nil
}

// decodeReply parses a JSON object from a model reply, tolerating a
// surrounding markdown code fence.
func decodeReply(content string, v any) error {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return json.Unmarshal([]byte(s), v)
}
