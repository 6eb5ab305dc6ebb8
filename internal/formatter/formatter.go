// package formatter renders collection exports (CSV, Markdown, plain text, JSON) and the
// small display helpers shared by the CLI and the TUI.
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/moviemate/internal/models"
	"github.com/desertthunder/moviemate/internal/shared"
)

// Format is an export file format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or its usual file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q (use csv, markdown, txt or json)", shared.ErrInvalidArgument, s)
}

// Extension is the file extension written for the format.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// RatingStars renders a rating as one star per scale point with half-star rounding.
// A nil rating renders as "—".
func RatingStars(rating *float64, scale float64) string {
	if rating == nil {
		return "—"
	}

	slots := int(math.Round(scale))
	halves := int(math.Round(math.Min(math.Max(*rating, 0), scale) * 2))
	full, half := halves/2, halves%2

	var b strings.Builder
	b.WriteString(strings.Repeat("★", full))
	if half == 1 {
		b.WriteString("½")
	}
	b.WriteString(strings.Repeat("☆", max(slots-full-half, 0)))
	return b.String()
}

// ProgressLabel renders TV progress as "watched/total (pct%)". Movies render as "".
func ProgressLabel(item models.CollectionItem) string {
	if !item.IsTV() {
		return ""
	}
	total := item.Total()
	if total <= 0 {
		return fmt.Sprintf("%d watched", item.EpisodesWatched)
	}
	pct := int(math.Round(float64(item.EpisodesWatched) / float64(total) * 100))
	return fmt.Sprintf("%d/%d (%d%%)", item.EpisodesWatched, total, pct)
}

func ratingValue(r *float64) string {
	if r == nil {
		return ""
	}
	return strconv.FormatFloat(*r, 'f', -1, 64)
}

// ExportToCSV converts collection records to CSV with columns: ID, Title, Type, Status,
// Genre, Platform, Director, Progress, Rating, Review
func ExportToCSV(items []models.CollectionItem) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Type", "Status", "Genre", "Platform", "Director", "Progress", "Rating", "Review"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range items {
		record := []string{
			strconv.FormatInt(item.ID, 10),
			item.Title,
			string(item.MediaType),
			string(item.Status),
			item.Genre,
			item.Platform,
			item.Director,
			ProgressLabel(item),
			ratingValue(item.Rating),
			item.Review,
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

// ExportToMarkdown converts collection records to a Markdown document grouped by status.
func ExportToMarkdown(title string, items []models.CollectionItem, maxRating float64) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Titles**: %d\n\n", len(items))

	for _, status := range []models.WatchStatus{models.StatusWatching, models.StatusCompleted, models.StatusWishlist} {
		var group []models.CollectionItem
		for _, item := range items {
			if item.Status == status {
				group = append(group, item)
			}
		}
		if len(group) == 0 {
			continue
		}

		fmt.Fprintf(&buf, "## %s\n\n", strings.ToUpper(string(status[:1]))+string(status[1:]))
		for i, item := range group {
			line := fmt.Sprintf("%d. **%s**", i+1, item.Title)
			if item.Platform != "" {
				line += fmt.Sprintf(" (%s)", item.Platform)
			}
			line += " " + RatingStars(item.Rating, maxRating)
			if p := ProgressLabel(item); p != "" {
				line += " · " + p
			}
			buf.WriteString(line + "\n")
			if item.Review != "" {
				fmt.Fprintf(&buf, "   > %s\n", item.Review)
			}
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts collection records to plain text format
func ExportToText(items []models.CollectionItem, maxRating float64) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Collection: %d titles\n\n", len(items))
	for i, item := range items {
		fmt.Fprintf(&buf, "%d. %s [%s, %s] %s", i+1, item.Title, item.MediaType, item.Status, RatingStars(item.Rating, maxRating))
		if p := ProgressLabel(item); p != "" {
			fmt.Fprintf(&buf, " %s", p)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON writes the records as an indented JSON array.
func ExportToJSON(items []models.CollectionItem) ([]byte, error) {
	if items == nil {
		items = []models.CollectionItem{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Export renders items in the given format.
func Export(format Format, items []models.CollectionItem, maxRating float64) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(items)
	case FormatMarkdown:
		return ExportToMarkdown("My Collection", items, maxRating)
	case FormatText:
		return ExportToText(items, maxRating)
	case FormatJSON:
		return ExportToJSON(items)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
}

// WriteExport renders items and writes them to path.
//
// Defaults to moviemate_collection.{ext} as the filename.
func WriteExport(format Format, items []models.CollectionItem, maxRating float64, path string) (string, error) {
	if path == "" {
		path = "moviemate_collection." + format.Extension()
	}

	data, err := Export(format, items, maxRating)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}
