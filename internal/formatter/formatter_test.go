package formatter

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/spotify-tools/internal/models"
	"github.com/desertthunder/spotify-tools/internal/shared"
	th "github.com/desertthunder/spotify-tools/internal/testing"
)

func testExport() Export {
	return Export{
		Playlist: &models.Playlist{
			ID:          "shuffled-1",
			Name:        "Road Trip (2024-06-01 10:30)",
			Description: "Shuffled version of Road Trip",
			Public:      false,
			URL:         "https://open.spotify.com/playlist/shuffled-1",
		},
		Items: []models.TrackItem{
			{Track: &models.Track{ID: "track2", Name: "Song Two", Artist: "Artist Two", Album: "Album Two", URI: "spotify:track:track2"}},
			{Track: nil},
			{Track: &models.Track{ID: "track1", Name: "Song One", Artist: "Artist One", URI: "spotify:track:track1"}},
			{Track: &models.Track{Name: "demo.mp3", IsLocal: true}},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %d lines: %q", len(lines), data)
		}
		if lines[0] != "Position,ID,Name,Artist,Album,URI" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if lines[1] != "1,track2,Song Two,Artist Two,Album Two,spotify:track:track2" {
			t.Errorf("unexpected first row %q", lines[1])
		}
		if !strings.HasPrefix(lines[2], "2,track1,Song One") {
			t.Errorf("unexpected second row %q", lines[2])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testExport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Road Trip (2024-06-01 10:30)",
			"**Description**: Shuffled version of Road Trip",
			"**Tracks**: 2",
			"**Visibility**: Private",
			"[Open in Spotify](https://open.spotify.com/playlist/shuffled-1)",
			"1. Artist Two - Song Two (Album Two)",
			"2. Artist One - Song One\n",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got: %s", want, output)
			}
		}
		if strings.Contains(output, "demo.mp3") {
			t.Error("Markdown should skip local files")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Tracks: 2\n") {
			t.Errorf("Text missing track count, got: %s", output)
		}
		if !strings.Contains(output, "1. Artist Two - Song Two\n2. Artist One - Song One\n") {
			t.Errorf("Text should list tracks in order, got: %s", output)
		}
	})

	t.Run("unknown artist", func(t *testing.T) {
		export := Export{
			Playlist: &models.Playlist{Name: "Mix"},
			Items:    []models.TrackItem{{Track: &models.Track{Name: "Untitled", URI: "spotify:track:x"}}},
		}
		data, _ := ExportToText(export)
		if !strings.Contains(string(data), "1. Unknown Artist - Untitled") {
			t.Errorf("expected placeholder artist, got: %s", data)
		}
	})
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"out.csv", CSV},
		{"OUT.CSV", CSV},
		{"notes/order.md", Markdown},
		{"order.markdown", Markdown},
		{"order.txt", Text},
		{"order", Text},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	t.Run("rejects unknown extensions", func(t *testing.T) {
		if _, err := FormatFromPath("order.xlsx"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("writes the format implied by the extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "exports", "order.csv")

		if err := WriteExport(testExport(), path); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.HasPrefix(content, "Position,ID,Name") {
			t.Errorf("expected CSV content, got %s", content)
		}
	})

	t.Run("rejects a missing playlist", func(t *testing.T) {
		err := WriteExport(Export{}, filepath.Join(t.TempDir(), "order.txt"))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}
