package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Note is the persisted row of the notes table. Tags hold the JSON encoded
// tag list; EventDate and EventTime are kept as normalized ISO strings so
// every supported database stores them the same way.
type Note struct {
	ID        uint      `gorm:"primaryKey"`
	Title     string    `gorm:"size:200;not null"`
	Content   string    `gorm:"type:text;not null"`
	Tags      string    `gorm:"type:text"`
	EventDate *string   `gorm:"size:10"`
	EventTime *string   `gorm:"size:8"`
	UpdatedAt time.Time `gorm:"index;autoUpdateTime:false"`
}

// NoteRecord is the JSON shape of a note on the HTTP boundary.
type NoteRecord struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	EventDate *string   `json:"eventDate"`
	EventTime *string   `json:"eventTime"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteInput is a create or update payload. A nil field was omitted by the
// client.
type NoteInput struct {
	Title     *string   `json:"title"`
	Content   *string   `json:"content"`
	Tags      *[]string `json:"tags"`
	EventDate *string   `json:"eventDate"`
	EventTime *string   `json:"eventTime"`
}

// ToTransport converts a stored note into its JSON record. Stored tags that
// fail to decode come back as an empty list.
func ToTransport(n Note) NoteRecord {
	tags, err := DecodeTags(n.Tags)
	if err != nil {
		log.Warn().Err(err).Uint("note_id", n.ID).Msg("stored tags are not valid JSON, returning none")
		tags = []string{}
	}
	return NoteRecord{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Tags:      tags,
		EventDate: n.EventDate,
		EventTime: n.EventTime,
		UpdatedAt: n.UpdatedAt,
	}
}

// FromTransport builds a new, unsaved note. Missing title and content
// default to empty strings and missing tags to an empty list. ID and
// UpdatedAt are left for the store to assign.
func FromTransport(in NoteInput) (Note, error) {
	var n Note
	if in.Title != nil {
		n.Title = *in.Title
	}
	if in.Content != nil {
		n.Content = *in.Content
	}
	var tags []string
	if in.Tags != nil {
		tags = *in.Tags
	}
	n.Tags = EncodeTags(tags)

	if err := applyEvent(&n, in); err != nil {
		return Note{}, err
	}
	return n, nil
}

// ApplyUpdate copies the fields present in the payload onto n. Tags, when
// present, replace the whole list. UpdatedAt is not touched.
func ApplyUpdate(n *Note, in NoteInput) error {
	if in.Title != nil {
		n.Title = *in.Title
	}
	if in.Content != nil {
		n.Content = *in.Content
	}
	if in.Tags != nil {
		n.Tags = EncodeTags(*in.Tags)
	}
	return applyEvent(n, in)
}

func applyEvent(n *Note, in NoteInput) error {
	if in.EventDate != nil {
		d, err := NormalizeDate(*in.EventDate)
		if err != nil {
			return err
		}
		n.EventDate = d
	}
	if in.EventTime != nil {
		t, err := NormalizeTime(*in.EventTime)
		if err != nil {
			return err
		}
		n.EventTime = t
	}
	return nil
}

// EncodeTags serializes a tag list for storage. A nil list encodes as "[]".
func EncodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		// a []string always marshals
		panic(err)
	}
	return string(b)
}

// DecodeTags parses the stored tag form. Empty input yields an empty list.
func DecodeTags(s string) ([]string, error) {
	tags := []string{}
	if strings.TrimSpace(s) == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return []string{}, fmt.Errorf("decode tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// NormalizeDate parses a YYYY-MM-DD date. An empty string clears the date.
func NormalizeDate(s string) (*string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid eventDate %q: expected YYYY-MM-DD", s)
	}
	out := d.Format(dateLayout)
	return &out, nil
}

// NormalizeTime parses HH:MM or HH:MM:SS into HH:MM:SS. An empty string
// clears the time.
func NormalizeTime(s string) (*string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{timeLayout, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			out := t.Format(timeLayout)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("invalid eventTime %q: expected HH:MM or HH:MM:SS", s)
}
