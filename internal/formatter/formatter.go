// package formatter provides functions to export a library to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
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

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or its common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, s)
	}
}

// LibraryExport is a library snapshot prepared for export.
type LibraryExport struct {
	Owner      string
	ExportedAt time.Time
	Tracks     []models.Track
}

// NewLibraryExport creates a [LibraryExport] stamped with the current time.
func NewLibraryExport(owner string, tracks []models.Track) *LibraryExport {
	return &LibraryExport{Owner: owner, ExportedAt: time.Now().UTC(), Tracks: tracks}
}

// TrackRecord is the JSON shape of an exported track.
type TrackRecord struct {
	Kind         string `json:"kind"`
	ID           string `json:"id"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	Album        string `json:"album,omitempty"`
	Duration     *int   `json:"duration,omitempty"`
	SourceURL    string `json:"source_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Metadata summarizes an export without its tracks.
type Metadata struct {
	Owner      string         `json:"owner"`
	ExportedAt time.Time      `json:"exported_at"`
	TrackCount int            `json:"track_count"`
	Providers  map[string]int `json:"providers"`
}

// NewTrackRecord converts t into its JSON shape.
func NewTrackRecord(t models.Track) TrackRecord {
	f := t.Fields()
	return TrackRecord{
		Kind:         t.Kind().String(),
		ID:           f.ID,
		Title:        f.Title,
		Artist:       f.Artist,
		Album:        f.Album,
		Duration:     f.Duration,
		SourceURL:    f.SourceURL,
		ThumbnailURL: f.ThumbnailURL,
	}
}

// Export renders the export in the given format.
func Export(export *LibraryExport, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export, "")
	case FormatText:
		return ExportToText(export)
	case FormatJSON:
		return ExportToJSON(export)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, format)
	}
}

// ExportToCSV converts a LibraryExport to CSV format with columns: Kind, ID, Title, Artist, Album, Duration, URL
//
// Unknown durations are left empty.
func ExportToCSV(export *LibraryExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Kind", "ID", "Title", "Artist", "Album", "Duration", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		duration := ""
		if d, ok := track.Duration(); ok {
			duration = strconv.Itoa(d)
		}
		record := []string{
			track.Kind().String(),
			track.ID(),
			track.Title(),
			track.Artist(),
			track.Album(),
			duration,
			track.SourceURL(),
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

// ExportToMarkdown converts a LibraryExport to Markdown format with optional cover image
func ExportToMarkdown(export *LibraryExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title(export))

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(export.Tracks))
	fmt.Fprintf(&buf, "**Exported**: %s\n\n", export.ExportedAt.Format(time.RFC3339))

	for _, kind := range models.ProviderKinds {
		var section []models.Track
		for _, t := range export.Tracks {
			if t.Kind() == kind {
				section = append(section, t)
			}
		}
		if len(section) == 0 {
			continue
		}

		fmt.Fprintf(&buf, "## %s\n\n", kind.Label())
		for i, track := range section {
			albumPart := ""
			if track.Album() != "" {
				albumPart = fmt.Sprintf(" (%s)", track.Album())
			}
			line := fmt.Sprintf("%s - %s%s [%s]", track.Artist(), track.Title(), albumPart, track.FormattedDuration())
			if track.SourceURL() != "" {
				line = fmt.Sprintf("[%s](%s)", line, track.SourceURL())
			}
			fmt.Fprintf(&buf, "%d. %s\n", i+1, line)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts a LibraryExport to plain text format
func ExportToText(export *LibraryExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Library: %s\n", title(export))
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(export.Tracks))

	for i, track := range export.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s [%s] (%s)\n", i+1, track.Artist(), track.Title(), track.FormattedDuration(), track.Kind())
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a LibraryExport to an indented JSON array of [TrackRecord]
func ExportToJSON(export *LibraryExport) ([]byte, error) {
	records := make([]TrackRecord, 0, len(export.Tracks))
	for _, t := range export.Tracks {
		records = append(records, NewTrackRecord(t))
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tracks: %w", err)
	}
	return append(data, '\n'), nil
}

// ToMetadataJSON generates a JSON representation of the export metadata (without tracks)
func ToMetadataJSON(export *LibraryExport) ([]byte, error) {
	meta := Metadata{
		Owner:      export.Owner,
		ExportedAt: export.ExportedAt,
		TrackCount: len(export.Tracks),
		Providers:  make(map[string]int),
	}
	for _, t := range export.Tracks {
		meta.Providers[t.Kind().String()]++
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return data, nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
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

// CoverURL returns the artwork of the first track that has one.
func CoverURL(export *LibraryExport) string {
	for _, t := range export.Tracks {
		if t.HasArtwork() {
			return t.ThumbnailURL()
		}
	}
	return ""
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a library to CSV format with accompanying metadata JSON file.
//
// Defaults to "library" as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(export *LibraryExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = "library"
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
	Warnings   []string // non-fatal cover image problems
}

// WriteMarkdownExport exports a library to Markdown format in a dedicated directory.
//
// Directory name defaults to "library".
// The imageURL parameter is optional - if provided, attempts to download the cover image.
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(export *LibraryExport, outputDir string, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "library"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to download cover image: %v", err))
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("failed to save cover image: %v", err))
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a library to plain text format.
//
// Defaults to library_tracks.txt as the filename.
func WriteTextExport(export *LibraryExport, path string) (string, error) {
	if path == "" {
		path = "library_tracks.txt"
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteJSONExport exports a library to a JSON file.
//
// Defaults to library.json as the filename.
func WriteJSONExport(export *LibraryExport, path string) (string, error) {
	if path == "" {
		path = "library.json"
	}

	data, err := ExportToJSON(export)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}
	return path, nil
}

func title(export *LibraryExport) string {
	if export.Owner == "" {
		return "Library"
	}
	return export.Owner + "'s library"
}
