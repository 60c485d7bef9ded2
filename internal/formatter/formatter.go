// package formatter renders cached releases for browsing and exports them to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/shared"
)

// Export formats accepted by [WriteExport].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatText     = "txt"
)

// ExportToCSV converts releases to CSV format with columns: ID, Date, Title, Artists, Status, Tracks, Type, Catno, Label, URL
func ExportToCSV(releases []models.Release) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Date", "Title", "Artists", "Status", "Tracks", "Type", "Catno", "Label", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range releases {
		row := NewRow(r)
		record := []string{
			r.Key(),
			row.Date,
			row.Title,
			strings.Join(row.Artists, ", "),
			row.Status,
			row.Tracks,
			row.Type,
			row.Catno,
			row.Label,
			row.URL,
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

// ExportToMarkdown converts releases to a Markdown list under title.
func ExportToMarkdown(title string, releases []models.Release) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Releases**: %d\n\n", len(releases))

	for i, r := range releases {
		row := NewRow(r)
		fmt.Fprintf(&buf, "%d. %s - [%s](%s) (%s, %s)", i+1, strings.Join(row.Artists, ", "), row.Title, row.URL, row.Type, row.Label)
		if r.Status == models.StatusToListen {
			buf.WriteString(" *to listen*")
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts releases to plain text format, one [Row] per line.
func ExportToText(releases []models.Release) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Releases: %d\n\n", len(releases))
	for _, r := range releases {
		buf.WriteString(NewRow(r).String())
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ToJSON encodes releases as an id-keyed object, the shape the cache is stored and imported in.
func ToJSON(releases []models.Release) ([]byte, error) {
	cache := make(map[string]models.Release, len(releases))
	for _, r := range releases {
		cache[r.Key()] = r
	}
	return shared.MarshalJSON(cache, true)
}

// FormatFromPath infers the export format from the file extension, defaulting to JSON.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".md", ".markdown":
		return FormatMarkdown
	case ".txt":
		return FormatText
	default:
		return FormatJSON
	}
}

// Export renders releases in format.
func Export(releases []models.Release, format string) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return ToJSON(releases)
	case FormatCSV:
		return ExportToCSV(releases)
	case FormatMarkdown:
		return ExportToMarkdown("Curate Releases", releases)
	case FormatText:
		return ExportToText(releases)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport exports releases to path in the format its extension names.
//
// Defaults to releases.json in the working directory.
func WriteExport(releases []models.Release, path string) (string, error) {
	if path == "" {
		path = "releases.json"
	}

	data, err := Export(releases, FormatFromPath(path))
	if err != nil {
		return "", fmt.Errorf("failed to generate export: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
