package tasks

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/desertthunder/snaptunes/internal/models"
	"github.com/desertthunder/snaptunes/internal/shared"
)

func TestParseExtraction(t *testing.T) {
	tc := []struct {
		name    string
		content string
		songs   []models.SongCandidate
		title   string
		parser  string
	}{
		{
			name:    "songs field",
			content: `{"songs":[{"title":"Bohemian Rhapsody","artist":"Queen"}],"playlist_title":"Classics"}`,
			songs:   []models.SongCandidate{{Title: "Bohemian Rhapsody", Artist: "Queen"}},
			title:   "Classics",
			parser:  "songs",
		},
		{
			name:    "data field fallback",
			content: `{"data":[{"title":"Halo","artist":"Beyonce"}],"playlist_title":"Pop"}`,
			songs:   []models.SongCandidate{{Title: "Halo", Artist: "Beyonce"}},
			title:   "Pop",
			parser:  "data",
		},
		{
			name:    "invalid songs falls back to data",
			content: `{"songs":"none","data":[{"title":"Halo","artist":""}]}`,
			songs:   []models.SongCandidate{{Title: "Halo", Artist: ""}},
			parser:  "data",
		},
		{
			name:    "bare array has no title",
			content: `[{"title":"Yesterday","artist":"The Beatles"}]`,
			songs:   []models.SongCandidate{{Title: "Yesterday", Artist: "The Beatles"}},
			parser:  "array",
		},
		{
			name:    "one invalid element rejects the whole list",
			content: `{"songs":[{"title":"Ok","artist":"A"},{"title":"No artist"}]}`,
			songs:   []models.SongCandidate{},
		},
		{
			name:    "non-string artist rejects the list",
			content: `{"songs":[{"title":"Ok","artist":7}]}`,
			songs:   []models.SongCandidate{},
		},
		{
			name:    "keys match case-sensitively",
			content: `[{"Title":"Yesterday","ARTIST":"The Beatles"}]`,
			songs:   []models.SongCandidate{},
		},
		{
			name:    "null title rejects the list",
			content: `{"songs":[{"title":null,"artist":"A"}]}`,
			songs:   []models.SongCandidate{},
		},
		{
			name:    "null element rejects the list",
			content: `{"songs":[null]}`,
			songs:   []models.SongCandidate{},
		},
		{
			name:    "blank titles dropped and values trimmed",
			content: `{"songs":[{"title":"  ","artist":"X"},{"title":" Hey Jude ","artist":" The Beatles "}]}`,
			songs:   []models.SongCandidate{{Title: "Hey Jude", Artist: "The Beatles"}},
			parser:  "songs",
		},
		{
			name:    "non-string playlist title ignored",
			content: `{"songs":[],"playlist_title":42}`,
			songs:   []models.SongCandidate{},
			parser:  "songs",
		},
		{name: "invalid json", content: `not json`, songs: []models.SongCandidate{}},
		{name: "empty content treated as object", content: "", songs: []models.SongCandidate{}},
		{name: "null payload", content: "null", songs: []models.SongCandidate{}},
		{name: "missing fields", content: `{"playlist_title":"Lonely"}`, songs: []models.SongCandidate{}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, parser := ParseExtraction(tt.content)
			if got.Songs == nil {
				t.Fatal("songs must never be nil")
			}
			if !reflect.DeepEqual(got.Songs, tt.songs) {
				t.Errorf("songs = %+v, want %+v", got.Songs, tt.songs)
			}
			if got.PlaylistTitle != tt.title {
				t.Errorf("title = %q, want %q", got.PlaylistTitle, tt.title)
			}
			if parser != tt.parser {
				t.Errorf("parser = %q, want %q", parser, tt.parser)
			}
		})
	}
}

func TestExtractor(t *testing.T) {
	ctx := context.Background()

	t.Run("Scenario", func(t *testing.T) {
		backend := &fakeCompletion{content: `{"songs":[{"title":"Bohemian Rhapsody","artist":"Queen"}],"playlist_title":""}`}
		result, err := NewExtractor(backend, 0, nil).Extract(ctx, "Bohemian Rhapsody by Queen")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := []models.SongCandidate{{Title: "Bohemian Rhapsody", Artist: "Queen"}}
		if !reflect.DeepEqual(result.Songs, want) {
			t.Errorf("unexpected songs %+v", result.Songs)
		}
		if !strings.HasSuffix(backend.prompts[0], "Text:\nBohemian Rhapsody by Queen") {
			t.Errorf("expected text appended to prompt, got %q", backend.prompts[0])
		}
	})

	t.Run("Empty Text", func(t *testing.T) {
		backend := &fakeCompletion{}
		for _, text := range []string{"", "   \n\t"} {
			_, err := NewExtractor(backend, 0, nil).Extract(ctx, text)
			if !errors.Is(err, shared.ErrEmptyText) || !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected validation error for %q, got %v", text, err)
			}
		}
		if len(backend.prompts) != 0 {
			t.Error("expected no backend call")
		}
	})

	t.Run("Text Too Long", func(t *testing.T) {
		backend := &fakeCompletion{content: "{}"}
		e := NewExtractor(backend, 5, nil)

		if _, err := e.Extract(ctx, "héllo"); err != nil {
			t.Errorf("five runes should be accepted, got %v", err)
		}
		if _, err := e.Extract(ctx, "héllo!"); !errors.Is(err, shared.ErrTextTooLong) {
			t.Errorf("expected ErrTextTooLong, got %v", err)
		}
	})

	t.Run("Backend Failure Is Service Error", func(t *testing.T) {
		backend := &fakeCompletion{err: shared.ErrMissingAPIKey}
		result, err := NewExtractor(backend, 0, nil).Extract(ctx, "some text")
		if shared.KindOf(err) != shared.KindService {
			t.Errorf("expected service kind, got %v", err)
		}
		if result.Songs == nil {
			t.Error("songs must never be nil")
		}
	})

	t.Run("Garbage Degrades To Empty", func(t *testing.T) {
		backend := &fakeCompletion{content: "Sorry, I can't help with that."}
		result, err := NewExtractor(backend, 0, nil).Extract(ctx, "some text")
		if err != nil {
			t.Fatalf("parse failures must not propagate, got %v", err)
		}
		if len(result.Songs) != 0 {
			t.Errorf("expected empty result, got %+v", result.Songs)
		}
	})
}
