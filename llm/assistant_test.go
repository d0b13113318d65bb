package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	t.Run("parses JSON reply", func(t *testing.T) {
		c, _ := newTestClient(t)
		httpmock.RegisterResponder(http.MethodPost, testURL, func(req *http.Request) (*http.Response, error) {
			var body chatRequest
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			require.Len(t, body.Messages, 2)
			assert.Contains(t, body.Messages[0].Content, "Translate the following text to es")
			assert.Equal(t, "Title: Hello\nContent: Good morning", body.Messages[1].Content)
			assert.InDelta(t, 0.3, body.Temperature, 0.0001)
			return httpmock.NewJsonResponse(http.StatusOK, chatReply(`{"title": "Hola", "content": "Buenos días"}`))
		})

		tr, err := c.Translate(context.Background(), "Good morning", "es", "Hello")
		require.NoError(t, err)
		assert.Equal(t, Translation{Title: "Hola", Content: "Buenos días"}, tr)
	})

	t.Run("accepts fenced JSON", func(t *testing.T) {
		c, _ := newTestClient(t)
		httpmock.RegisterResponder(http.MethodPost, testURL, okResponder(t, "```json\n{\"title\": \"Bonjour\", \"content\": \"Salut\"}\n```"))

		tr, err := c.Translate(context.Background(), "Hi", "fr", "")
		require.NoError(t, err)
		assert.Equal(t, "Bonjour", tr.Title)
	})

	t.Run("falls back to raw reply with title", func(t *testing.T) {
		c, _ := newTestClient(t)
		httpmock.RegisterResponder(http.MethodPost, testURL, okResponder(t, "Buenos días a todos"))

		tr, err := c.Translate(context.Background(), "Good morning all", "es", "Greeting")
		require.NoError(t, err)
		assert.Equal(t, Translation{Title: "Greeting", Content: "Buenos días a todos"}, tr)
	})

	t.Run("falls back to default title", func(t *testing.T) {
		c, _ := newTestClient(t)
		httpmock.RegisterResponder(http.MethodPost, testURL, func(req *http.Request) (*http.Response, error) {
			var body chatRequest
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.True(t, strings.HasPrefix(body.Messages[1].Content, "Title: None\n"))
			return httpmock.NewJsonResponse(http.StatusOK, chatReply("not json"))
		})

		tr, err := c.Translate(context.Background(), "text", "de", "")
		require.NoError(t, err)
		assert.Equal(t, Translation{Title: "Translated Note", Content: "not json"}, tr)
	})

	t.Run("wraps completion errors", func(t *testing.T) {
		c, _ := newTestClient(t)
		httpmock.RegisterResponder(http.MethodPost, testURL, httpmock.NewStringResponder(http.StatusUnauthorized, "bad token"))

		_, err := c.Translate(context.Background(), "text", "de", "")
		require.ErrorIs(t, err, ErrTranslationFailed)
		var se *StatusError
		assert.ErrorAs(t, err, &se)
		assert.Contains(t, err.Error(), "bad token")
	})
}

func TestGenerateStructuredNote(t *testing.T) {
	t.Run("parses JSON reply", func(t *testing.T) {
		c, _ := newTestClient(t)
		httpmock.RegisterResponder(http.MethodPost, testURL, func(req *http.Request) (*http.Response, error) {
			var body chatRequest
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Contains(t, body.Messages[0].Content, `language with code "pt"`)
			assert.Equal(t, "Create a note from: team sync tomorrow 2pm", body.Messages[1].Content)
			assert.InDelta(t, 0.7, body.Temperature, 0.0001)
			return httpmock.NewJsonResponse(http.StatusOK, chatReply(
				`{"title": "Team Sync", "content": "Discuss timeline", "tags": ["work", "meeting"], "event_date": "2024-01-15", "event_time": "14:00"}`))
		})

		g, err := c.GenerateStructuredNote(context.Background(), "team sync tomorrow 2pm", "pt")
		require.NoError(t, err)
		assert.Equal(t, "Team Sync", g.Title)
		assert.Equal(t, "Discuss timeline", g.Content)
		assert.Equal(t, []string{"work", "meeting"}, g.Tags)
		require.NotNil(t, g.EventDate)
		require.NotNil(t, g.EventTime)
		assert.Equal(t, "2024-01-15", *g.EventDate)
		assert.Equal(t, "14:00:00", *g.EventTime)
	})

	t.Run("missing fields take defaults", func(t *testing.T) {
		c, _ := newTestClient(t)
		httpmock.RegisterResponder(http.MethodPost, testURL, okResponder(t, `{"event_date": null, "event_time": "whenever"}`))

		g, err := c.GenerateStructuredNote(context.Background(), "buy milk", "")
		require.NoError(t, err)
		assert.Equal(t, "Generated Note", g.Title)
		assert.Equal(t, "buy milk", g.Content)
		assert.Equal(t, []string{}, g.Tags)
		assert.Nil(t, g.EventDate)
		assert.Nil(t, g.EventTime)
	})

	t.Run("falls back on unparseable reply", func(t *testing.T) {
		c, _ := newTestClient(t)
		httpmock.RegisterResponder(http.MethodPost, testURL, okResponder(t, "Sure! Here is your note: ..."))

		g, err := c.GenerateStructuredNote(context.Background(), "call mom", "en")
		require.NoError(t, err)
		assert.Equal(t, GeneratedNote{Title: "Generated Note", Content: "call mom", Tags: []string{"generated"}}, g)
	})

	t.Run("wraps completion errors", func(t *testing.T) {
		c, _ := newTestClient(t)
		httpmock.RegisterResponder(http.MethodPost, testURL, sequence([]int{429}, ""))

		_, err := c.GenerateStructuredNote(context.Background(), "x", "en")
		require.ErrorIs(t, err, ErrNoteGenerationFailed)
		assert.Equal(t, 3, httpmock.GetTotalCallCount())
	})
}

func TestGeneratedNoteInput(t *testing.T) {
	date := "2024-01-15"
	in := GeneratedNote{Title: "t", Content: "c", EventDate: &date}.Input()
	require.NotNil(t, in.Tags)
	assert.Equal(t, []string{}, *in.Tags)
	assert.Equal(t, "t", *in.Title)
	assert.Equal(t, &date, in.EventDate)
	assert.Nil(t, in.EventTime)
}

func TestUnavailable(t *testing.T) {
	cause := &ConfigurationError{Setting: "GITHUB_TOKEN"}
	u := Unavailable{Err: cause}

	_, err := u.Translate(context.Background(), "a", "b", "c")
	assert.ErrorIs(t, err, ErrTranslationFailed)
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))

	_, err = u.GenerateStructuredNote(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrNoteGenerationFailed)
	assert.Equal(t, "note generation failed: GITHUB_TOKEN is required", err.Error())
}
