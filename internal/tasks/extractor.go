package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/snaptunes/internal/models"
	"github.com/desertthunder/snaptunes/internal/services"
	"github.com/desertthunder/snaptunes/internal/shared"
)

const DefaultMaxTextLength = 10000

const extractionPrompt = `Extract song titles and artists from the text below and return ONLY a JSON object in the following format:
{
  "songs": [ { "title": "Song Title", "artist": "Artist" } ],
  "playlist_title": "A recommended playlist title for this list of songs"
}
- Only include songs where the "title" is a non-empty string (do not include songs with empty or whitespace-only titles).
- If the artist is not clear, set "artist" to an empty string.
- If it is difficult to recommend a suitable playlist title, set "playlist_title" to an empty string.
- The response must be a valid JSON object and nothing else.
Text:
`

// BuildPrompt returns the extraction instruction followed by text.
func BuildPrompt(text string) string {
	return extractionPrompt + text
}

// Extractor turns free text into song candidates using a completion backend.
type Extractor struct {
	backend services.CompletionService
	maxLen  int
	logger  *log.Logger
}

// NewExtractor creates an extractor. maxLen <= 0 uses [DefaultMaxTextLength].
func NewExtractor(backend services.CompletionService, maxLen int, logger *log.Logger) *Extractor {
	if maxLen <= 0 {
		maxLen = DefaultMaxTextLength
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Extractor{backend: backend, maxLen: maxLen, logger: logger}
}

// Extract asks the backend for candidates in text and validates its answer.
//
// Empty text fails with [shared.ErrEmptyText]. Backend failures propagate as service errors.
// An answer that cannot be parsed degrades to an empty result.
func (e *Extractor) Extract(ctx context.Context, text string) (models.ExtractionResult, error) {
	if strings.TrimSpace(text) == "" {
		return models.EmptyExtraction(), shared.ErrEmptyText
	}
	if n := utf8.RuneCountInString(text); n > e.maxLen {
		return models.EmptyExtraction(), fmt.Errorf("%w: %d characters exceeds %d", shared.ErrTextTooLong, n, e.maxLen)
	}

	e.logger.Debug("requesting extraction", "backend", e.backend.Name(), "length", len(text))

	content, err := e.backend.Complete(ctx, BuildPrompt(text))
	if err != nil {
		return models.EmptyExtraction(), err
	}

	result, parser := ParseExtraction(content)
	e.logger.Debug("extraction parsed", "parser", parser, "songs", len(result.Songs))
	return result, nil
}

type rawCandidate struct {
	Title  string
	Artist string
}

// candidateParser reads a song list and optional title out of a decoded payload.
type candidateParser struct {
	name  string
	parse func(payload json.RawMessage) ([]rawCandidate, string, bool)
}

// candidateParsers are tried in order; the first structurally valid list wins.
var candidateParsers = []candidateParser{
	{name: "songs", parse: objectField("songs")},
	{name: "data", parse: objectField("data")},
	{name: "array", parse: bareArray},
}

func objectField(field string) func(json.RawMessage) ([]rawCandidate, string, bool) {
	return func(payload json.RawMessage) ([]rawCandidate, string, bool) {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(payload, &obj); err != nil || obj == nil {
			return nil, "", false
		}

		list, ok := songArray(obj[field])
		if !ok {
			return nil, "", false
		}

		var title string
		if raw, ok := obj["playlist_title"]; ok {
			if err := json.Unmarshal(raw, &title); err != nil {
				title = ""
			}
		}
		return list, title, true
	}
}

func bareArray(payload json.RawMessage) ([]rawCandidate, string, bool) {
	list, ok := songArray(payload)
	return list, "", ok
}

// songArray accepts raw only if it is an array whose every element has a string title and artist.
func songArray(raw json.RawMessage) ([]rawCandidate, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, false
	}

	list := make([]rawCandidate, 0, len(items))
	for _, item := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			return nil, false
		}
		title, ok := stringField(obj, "title")
		if !ok {
			return nil, false
		}
		artist, ok := stringField(obj, "artist")
		if !ok {
			return nil, false
		}
		list = append(list, rawCandidate{Title: title, Artist: artist})
	}
	return list, true
}

// stringField looks key up by exact name and reports whether its value is a JSON string.
func stringField(obj map[string]json.RawMessage, key string) (string, bool) {
	raw := bytes.TrimSpace(obj[key])
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return v, true
}

// ParseExtraction validates a backend answer. It never fails: unparseable or invalid content
// yields an empty result. The returned name identifies the parser that matched, if any.
func ParseExtraction(content string) (models.ExtractionResult, string) {
	content = strings.TrimSpace(content)
	if content == "" {
		content = "{}"
	}

	result := models.EmptyExtraction()

	payload := json.RawMessage(content)
	if !json.Valid(payload) {
		return result, ""
	}
	payload = bytes.TrimSpace(payload)

	for _, p := range candidateParsers {
		list, title, ok := p.parse(payload)
		if !ok {
			continue
		}

		for _, c := range list {
			t := strings.TrimSpace(c.Title)
			if t == "" {
				continue
			}
			result.Songs = append(result.Songs, models.SongCandidate{Title: t, Artist: strings.TrimSpace(c.Artist)})
		}
		result.PlaylistTitle = strings.TrimSpace(title)
		return result, p.name
	}
	return result, ""
}
