// package formatter exports a shuffled playlist's track order to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/spotify-tools/internal/models"
	"github.com/desertthunder/spotify-tools/internal/shared"
)

// Format names an export format.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "text"
)

// Export is a playlist along with its items in the order they were added.
type Export struct {
	Playlist *models.Playlist
	Items    []models.TrackItem
}

// tracks returns the items that reference a track, in order.
func (e Export) tracks() []models.Track {
	tracks := make([]models.Track, 0, len(e.Items))
	for _, item := range e.Items {
		if _, ok := item.Reference(); ok {
			tracks = append(tracks, *item.Track)
		}
	}
	return tracks
}

// FormatFromPath picks the export format from the file extension. Unknown extensions are rejected.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSV, nil
	case ".md", ".markdown":
		return Markdown, nil
	case ".txt", "":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unsupported export extension %q (use .csv, .md or .txt)", shared.ErrInvalidArgument, filepath.Ext(path))
	}
}

// ExportToCSV converts an Export to CSV format with columns: Position, ID, Name, Artist, Album, URI
func ExportToCSV(export Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Name", "Artist", "Album", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range export.tracks() {
		record := []string{
			strconv.Itoa(i + 1),
			track.ID,
			track.Name,
			track.Artist,
			track.Album,
			track.URI,
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

// ExportToMarkdown converts an Export to Markdown with a link to the playlist
func ExportToMarkdown(export Export) ([]byte, error) {
	var buf bytes.Buffer
	tracks := export.tracks()

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Playlist.Name))

	if export.Playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", export.Playlist.Description))
	}

	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(tracks)))
	buf.WriteString(fmt.Sprintf("**Visibility**: %s\n", visibility(export.Playlist.Public)))
	if export.Playlist.URL != "" {
		buf.WriteString(fmt.Sprintf("**Link**: [Open in Spotify](%s)\n", export.Playlist.URL))
	}
	buf.WriteString("\n## Tracks\n\n")

	for i, track := range tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, artist(track), track.Name, albumPart))
	}

	return buf.Bytes(), nil
}

// ExportToText converts an Export to plain text format
func ExportToText(export Export) ([]byte, error) {
	var buf bytes.Buffer
	tracks := export.tracks()

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", export.Playlist.Name))
	if export.Playlist.URL != "" {
		buf.WriteString(fmt.Sprintf("URL: %s\n", export.Playlist.URL))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(tracks)))

	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, artist(track), track.Name))
	}

	return buf.Bytes(), nil
}

// Render converts export to the given format.
func Render(export Export, format Format) ([]byte, error) {
	if export.Playlist == nil {
		return nil, fmt.Errorf("%w: export has no playlist", shared.ErrInvalidInput)
	}

	switch format {
	case CSV:
		return ExportToCSV(export)
	case Markdown:
		return ExportToMarkdown(export)
	case Text:
		return ExportToText(export)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport renders export in the format implied by path and writes it, creating parent directories as needed.
func WriteExport(export Export, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	data, err := Render(export, format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	return nil
}

func artist(track models.Track) string {
	if track.Artist == "" {
		return "Unknown Artist"
	}
	return track.Artist
}

func visibility(public bool) string {
	if public {
		return "Public"
	}
	return "Private"
}
