// package formatter renders pipeline results (matched tracks, match summary, created playlist)
// as plain text, CSV, Markdown or JSON
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/snaptunes/internal/models"
	"github.com/desertthunder/snaptunes/internal/shared"
)

// Output formats accepted by [Render].
const (
	FormatPlain    = "plain"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Formats lists the accepted format names.
var Formats = []string{FormatPlain, FormatCSV, FormatMarkdown, FormatJSON}

// Report is everything a run produced that is worth showing.
type Report struct {
	Name     string                     `json:"name"`
	Tracks   []models.MatchedTrack      `json:"tracks"`
	Found    int                        `json:"found"`
	Missing  int                        `json:"missing"`
	Playlist *models.PlaylistDescriptor `json:"playlist,omitempty"`
	Partial  bool                       `json:"partial,omitempty"`
}

// NewReport builds a report, counting found and missing tracks.
func NewReport(name string, tracks []models.MatchedTrack, playlist *models.PlaylistDescriptor, partial bool) Report {
	r := Report{Name: name, Tracks: tracks, Playlist: playlist, Partial: partial}
	for _, t := range tracks {
		if t.Found {
			r.Found++
		} else {
			r.Missing++
		}
	}
	return r
}

// ParseFormat normalizes a format name, accepting "text" and "md" as aliases. Empty means plain.
func ParseFormat(name string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(name)); f {
	case "", FormatPlain, "text":
		return FormatPlain, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, name, strings.Join(Formats, ", "))
	}
}

// Render formats r. palette colors plain output and may be nil.
func Render(format string, r Report, palette *Palette) ([]byte, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	switch f {
	case FormatCSV:
		return ToCSV(r.Tracks)
	case FormatMarkdown:
		return ToMarkdown(r, "")
	case FormatJSON:
		return ToJSON(r)
	default:
		return ToText(r, palette)
	}
}

// ToCSV converts matched tracks to CSV with columns: Position, Found, ID, Title, Artist, AlbumArt
func ToCSV(tracks []models.MatchedTrack) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Found", "ID", "Title", "Artist", "AlbumArt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range tracks {
		record := []string{
			strconv.Itoa(i + 1),
			strconv.FormatBool(track.Found),
			track.ID,
			track.Title,
			track.Artist,
			track.AlbumArt,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ToMarkdown converts a report to Markdown with an optional cover image
func ToMarkdown(r Report, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", reportTitle(r))

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	if p := r.Playlist; p != nil {
		fmt.Fprintf(&buf, "**Playlist**: [%s](%s)\n", p.Name, p.URL)
		if p.OwnerName != "" {
			fmt.Fprintf(&buf, "**Owner**: %s\n", p.OwnerName)
		}
		fmt.Fprintf(&buf, "**Tracks added**: %d\n", p.TracksAdded)
	}
	fmt.Fprintf(&buf, "**Matched**: %d of %d\n\n", r.Found, len(r.Tracks))

	if r.Partial {
		buf.WriteString("> Some tracks could not be added to the playlist.\n\n")
	}

	buf.WriteString("## Tracks\n\n")
	for i, track := range r.Tracks {
		mark := "x"
		if !track.Found {
			mark = " "
		}
		fmt.Fprintf(&buf, "%d. [%s] %s - %s\n", i+1, mark, track.Artist, track.Title)
	}

	return buf.Bytes(), nil
}

// ToText converts a report to plain text
func ToText(r Report, palette *Palette) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", palette.Title("Playlist: "+reportTitle(r)))
	fmt.Fprintf(&buf, "Matched: %d of %d\n\n", r.Found, len(r.Tracks))

	for i, track := range r.Tracks {
		status := palette.OK("found")
		if !track.Found {
			status = palette.Err("missing")
		}
		fmt.Fprintf(&buf, "%2d. %s - %s [%s]\n", i+1, track.Artist, track.Title, status)
	}

	if p := r.Playlist; p != nil {
		fmt.Fprintf(&buf, "\nCreated %s with %d tracks\n%s\n", p.Name, p.TracksAdded, palette.Help(p.URL))
	}
	if r.Partial {
		fmt.Fprintf(&buf, "%s\n", palette.Warn("Warning: some tracks could not be added to the playlist"))
	}

	return buf.Bytes(), nil
}

// ToJSON generates an indented JSON representation of the report
func ToJSON(r Report) ([]byte, error) {
	if r.Tracks == nil {
		r.Tracks = []models.MatchedTrack{}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

func reportTitle(r Report) string {
	if r.Playlist != nil && r.Playlist.Name != "" {
		return r.Playlist.Name
	}
	if r.Name != "" {
		return r.Name
	}
	return "Untitled"
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteReport writes r to path in format. An empty path defaults to the playlist or report
// name with the format's extension.
func WriteReport(r Report, format, path string) (string, error) {
	if path == "" {
		path = defaultFilename(r, format)
	}

	data, err := Render(format, r, nil)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport writes r to {dir}/README.md, and the playlist cover (or the first album art)
// to {dir}/cover.jpg when it can be downloaded.
//
// A failed cover download is not an error; the README is written without it.
func WriteMarkdownExport(ctx context.Context, client *http.Client, r Report, dir string) (*MarkdownExportResult, error) {
	if dir == "" {
		dir = slug(reportTitle(r))
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: dir, Files: []string{}}

	var coverFilename string
	if imageURL := coverURL(r); imageURL != "" {
		if imageData, err := DownloadImage(ctx, client, imageURL); err == nil {
			coverPath := filepath.Join(dir, "cover.jpg")
			if err := os.WriteFile(coverPath, imageData, 0644); err == nil {
				coverFilename = "cover.jpg"
				result.CoverImage = coverPath
				result.Files = append(result.Files, coverPath)
			}
		}
	}

	mdData, err := ToMarkdown(r, coverFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(dir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)

	return result, nil
}

func coverURL(r Report) string {
	if r.Playlist != nil && r.Playlist.CoverImage != "" {
		return r.Playlist.CoverImage
	}
	for _, t := range r.Tracks {
		if t.Found && t.AlbumArt != "" {
			return t.AlbumArt
		}
	}
	return ""
}

func defaultFilename(r Report, format string) string {
	ext := ".txt"
	switch f, _ := ParseFormat(format); f {
	case FormatCSV:
		ext = ".csv"
	case FormatMarkdown:
		ext = ".md"
	case FormatJSON:
		ext = ".json"
	}
	return slug(reportTitle(r)) + ext
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "-"):
			b.WriteByte('-')
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "playlist"
	}
	return out
}
