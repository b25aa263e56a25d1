package formatter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/duetfm/duet/internal/models"
)

func samplePlaylist() *models.Playlist {
	return &models.Playlist{
		ID:     "test123",
		Title:  "Test Playlist",
		Source: models.SourceSpotify,
		Tracks: []models.Track{
			{
				ID:         "track1",
				Title:      "Song One",
				Artist:     "Artist One",
				Album:      "Album One",
				DurationMS: 180_000,
				Source:     models.SourceSpotify,
			},
			{
				ID:         "track2",
				Title:      "Song Two",
				Artist:     "Artist Two",
				DurationMS: 240_000,
				Source:     models.SourceSoundCloud,
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(samplePlaylist())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "ID,Title,Artist,Album,Duration,Source") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "Song One") {
			t.Errorf("CSV missing track1 title")
		}
		if !strings.Contains(output, "180000") {
			t.Errorf("CSV missing track1 duration")
		}
		if !strings.Contains(output, "soundcloud") {
			t.Errorf("CSV missing track2 source")
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(samplePlaylist())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "# Test Playlist") {
			t.Errorf("Markdown missing title header")
		}
		if !strings.Contains(output, "**Tracks**: 2") {
			t.Errorf("Markdown missing track count")
		}
		if !strings.Contains(output, "1. Artist One - Song One (Album One) [3:00] (spotify)") {
			t.Errorf("Markdown missing formatted track line, got: %s", output)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(samplePlaylist())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Playlist: Test Playlist") {
			t.Errorf("Text missing playlist name")
		}
		if !strings.Contains(output, "2. Artist Two - Song Two") {
			t.Errorf("Text missing track line")
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(*samplePlaylist())
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, `"Test Playlist"`) {
			t.Errorf("JSON missing playlist title")
		}
		if strings.Contains(output, "Song One") {
			t.Errorf("metadata JSON should not include tracks")
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("Writes Known Formats", func(t *testing.T) {
		dir := t.TempDir()

		for _, format := range []string{"csv", "markdown", "txt", "json"} {
			path := filepath.Join(dir, "out."+format)
			n, err := WriteExport(samplePlaylist(), format, path)
			if err != nil {
				t.Fatalf("WriteExport(%s) failed: %v", format, err)
			}
			if n == 0 {
				t.Errorf("WriteExport(%s) wrote zero bytes", format)
			}

			if _, err := os.Stat(path); err != nil {
				t.Errorf("expected %s export on disk: %v", format, err)
			}
		}
	})

	t.Run("Rejects Unknown Format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.xml")
		if _, err := WriteExport(samplePlaylist(), "xml", path); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}
