package formatter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/snaptunes/internal/models"
	"github.com/desertthunder/snaptunes/internal/shared"
	th "github.com/desertthunder/snaptunes/internal/testing"
)

func sampleReport() Report {
	return NewReport("Queen Night", []models.MatchedTrack{
		{ID: "bohemian", Title: "Bohemian Rhapsody", Artist: "Queen", AlbumArt: "https://i.scdn.co/a", Found: true},
		{Title: "Lost Song", Artist: "Nobody"},
	}, &models.PlaylistDescriptor{
		ID: "pl-1", URL: "https://open.spotify.com/playlist/pl-1", Name: "Queen Night", OwnerName: "Stub User", TracksAdded: 1,
	}, false)
}

func TestNewReport(t *testing.T) {
	r := sampleReport()
	if r.Found != 1 || r.Missing != 1 {
		t.Errorf("expected 1 found and 1 missing, got %d/%d", r.Found, r.Missing)
	}
}

func TestExporters(t *testing.T) {
	t.Run("ToCSV", func(t *testing.T) {
		data, err := ToCSV(sampleReport().Tracks)
		if err != nil {
			t.Fatalf("ToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Position,Found,ID,Title,Artist,AlbumArt\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "1,true,bohemian,Bohemian Rhapsody,Queen,https://i.scdn.co/a") {
			t.Errorf("CSV missing found track, got: %s", output)
		}
		if !strings.Contains(output, "2,false,,Lost Song,Nobody,") {
			t.Errorf("CSV missing unmatched track, got: %s", output)
		}
	})

	t.Run("ToCSV quoting", func(t *testing.T) {
		data, err := ToCSV([]models.MatchedTrack{{Title: "Hello, Goodbye", Artist: "The Beatles"}})
		if err != nil {
			t.Fatalf("ToCSV failed: %v", err)
		}
		if !strings.Contains(string(data), `"Hello, Goodbye"`) {
			t.Errorf("expected quoted title, got: %s", data)
		}
	})

	t.Run("ToMarkdown", func(t *testing.T) {
		t.Run("without cover image", func(t *testing.T) {
			data, _ := ToMarkdown(sampleReport(), "")
			output := string(data)

			for _, want := range []string{
				"# Queen Night",
				"**Playlist**: [Queen Night](https://open.spotify.com/playlist/pl-1)",
				"**Matched**: 1 of 2",
				"1. [x] Queen - Bohemian Rhapsody",
				"2. [ ] Nobody - Lost Song",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q, got: %s", want, output)
				}
			}
			if strings.Contains(output, "![Cover]") {
				t.Error("Markdown should not include cover without a filename")
			}
		})

		t.Run("with cover image", func(t *testing.T) {
			data, _ := ToMarkdown(sampleReport(), "cover.jpg")
			if !strings.Contains(string(data), "![Cover](cover.jpg)") {
				t.Errorf("Markdown missing cover, got: %s", data)
			}
		})

		t.Run("partial", func(t *testing.T) {
			r := sampleReport()
			r.Partial = true
			data, _ := ToMarkdown(r, "")
			if !strings.Contains(string(data), "could not be added") {
				t.Errorf("Markdown missing partial warning, got: %s", data)
			}
		})
	})

	t.Run("ToText", func(t *testing.T) {
		data, _ := ToText(sampleReport(), nil)
		output := string(data)

		for _, want := range []string{
			"Playlist: Queen Night",
			"Matched: 1 of 2",
			" 1. Queen - Bohemian Rhapsody [found]",
			" 2. Nobody - Lost Song [missing]",
			"https://open.spotify.com/playlist/pl-1",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("text missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("ToText dry run", func(t *testing.T) {
		r := NewReport("", nil, nil, false)
		data, _ := ToText(r, nil)
		if !strings.Contains(string(data), "Playlist: Untitled") || strings.Contains(string(data), "Created") {
			t.Errorf("unexpected dry-run text: %s", data)
		}
	})

	t.Run("ToJSON", func(t *testing.T) {
		data, err := ToJSON(NewReport("Empty", nil, nil, false))
		if err != nil {
			t.Fatalf("ToJSON failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if tracks, ok := decoded["tracks"].([]any); !ok || len(tracks) != 0 {
			t.Errorf("expected empty tracks array, got %v", decoded["tracks"])
		}
		if _, ok := decoded["playlist"]; ok {
			t.Error("expected playlist to be omitted")
		}
	})
}

func TestRender(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"", "Playlist: Queen Night"},
		{"plain", "Playlist: Queen Night"},
		{"CSV", "Position,Found"},
		{"md", "# Queen Night"},
		{"markdown", "## Tracks"},
		{"json", `"found": 1`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			data, err := Render(tt.format, sampleReport(), nil)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("expected %q in output, got: %s", tt.want, data)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := Render("yaml", sampleReport(), nil); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestPalette(t *testing.T) {
	var p *Palette
	if p.OK("found") != "found" {
		t.Error("nil palette should render unstyled text")
	}
	if !strings.Contains(DefaultPalette.Title("hello"), "hello") {
		t.Error("palette should keep the text")
	}
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(context.Background(), nil, ""); err == nil {
			t.Error("DownloadImage with empty URL should return error")
		}
	})

	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg"))
		}))
		defer srv.Close()

		data, err := DownloadImage(context.Background(), srv.Client(), srv.URL)
		if err != nil || string(data) != "jpeg" {
			t.Errorf("unexpected result %q, %v", data, err)
		}
	})

	t.Run("Status", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		if _, err := DownloadImage(context.Background(), srv.Client(), srv.URL); err == nil {
			t.Error("expected error for 404")
		}
	})

	t.Run("Body Read", func(t *testing.T) {
		client := &http.Client{Transport: th.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK, Body: &th.FCloser{}, Header: http.Header{},
		}, nil)}
		if _, err := DownloadImage(context.Background(), client, "http://cover.test/a.jpg"); err == nil {
			t.Error("expected read error")
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteReport", func(t *testing.T) {
		dir := t.TempDir()
		path, err := WriteReport(sampleReport(), "csv", filepath.Join(dir, "out.csv"))
		if err != nil {
			t.Fatalf("WriteReport failed: %v", err)
		}
		th.AssertFileExists(t, path)
		if !strings.Contains(th.MustReadFile(t, path), "bohemian") {
			t.Error("expected track id in file")
		}
	})

	t.Run("DefaultFilename", func(t *testing.T) {
		if got := defaultFilename(sampleReport(), "json"); got != "queen-night.json" {
			t.Errorf("expected queen-night.json, got %q", got)
		}
		if got := defaultFilename(NewReport("!!!", nil, nil, false), ""); got != "playlist.txt" {
			t.Errorf("expected playlist.txt, got %q", got)
		}
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg"))
		}))
		defer srv.Close()

		r := sampleReport()
		r.Tracks[0].AlbumArt = srv.URL + "/cover"
		dir := filepath.Join(t.TempDir(), "export")

		result, err := WriteMarkdownExport(context.Background(), srv.Client(), r, dir)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if len(result.Files) != 2 || result.CoverImage == "" {
			t.Errorf("expected README and cover, got %+v", result)
		}
		th.AssertFileExists(t, filepath.Join(dir, "README.md"))
		if !strings.Contains(th.MustReadFile(t, filepath.Join(dir, "README.md")), "![Cover](cover.jpg)") {
			t.Error("README should reference the cover")
		}
	})

	t.Run("WriteMarkdownExport without cover", func(t *testing.T) {
		r := sampleReport()
		r.Tracks[0].AlbumArt = ""
		dir := filepath.Join(t.TempDir(), "export")

		result, err := WriteMarkdownExport(context.Background(), nil, r, dir)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if len(result.Files) != 1 || result.CoverImage != "" {
			t.Errorf("expected README only, got %+v", result)
		}
	})
}
