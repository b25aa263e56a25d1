// package formatter provides functions to export playlist data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/duetfm/duet/internal/models"
	"github.com/duetfm/duet/internal/shared"
)

// ExportToCSV converts a playlist to CSV format with columns: ID, Title, Artist, Album, Duration (ms), Source
func ExportToCSV(playlist *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration", "Source"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range playlist.Tracks {
		record := []string{
			track.ID,
			track.Title,
			track.Artist,
			track.Album,
			strconv.FormatInt(track.DurationMS, 10),
			track.Source.String(),
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

// ExportToMarkdown converts a playlist to Markdown format
func ExportToMarkdown(playlist *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", playlist.Title))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(playlist.Tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range playlist.Tracks {
		duration := shared.FormatDuration(track.DurationMS)
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s] (%s)\n", i+1, track.Artist, track.Title, albumPart, duration, track.Source))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a playlist to plain text format
func ExportToText(playlist *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", playlist.Title))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(playlist.Tracks)))

	for i, track := range playlist.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artist, track.Title))
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON serializes playlist metadata (without tracks) to indented JSON
func ToMetadataJSON(playlist models.Playlist) ([]byte, error) {
	playlist.Tracks = nil
	return json.MarshalIndent(playlist, "", "  ")
}

// WriteExport renders the playlist in the given format and writes it to
// filepath. Returns the number of bytes written.
func WriteExport(playlist *models.Playlist, format, filepath string) (int, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case "csv":
		data, err = ExportToCSV(playlist)
	case "markdown", "md":
		data, err = ExportToMarkdown(playlist)
	case "txt", "text":
		data, err = ExportToText(playlist)
	case "json":
		data, err = json.MarshalIndent(playlist, "", "  ")
	default:
		return 0, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return 0, err
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return 0, fmt.Errorf("failed to write export: %w", err)
	}
	return len(data), nil
}
