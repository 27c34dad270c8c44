package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/hypnojourney/internal"
)

// MarkdownExporter exports saved sessions in Markdown format
type MarkdownExporter struct{}

// Export exports records to Markdown format
func (e *MarkdownExporter) Export(records []internal.SavedSessionRecord, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Saved Sessions\n\n")
	_, _ = fmt.Fprintf(w, "**Sessions:** %d\n\n", len(records))

	for i, r := range records {
		_, _ = fmt.Fprintf(w, "## %s\n\n", escapeMarkdown(r.Title))
		_, _ = fmt.Fprintf(w, "**ID:** %s  \n", r.ID)

		created := r.Date
		if t := r.CreatedAt(); !t.IsZero() {
			created = t.Format("2006-01-02 15:04 MST")
		}
		_, _ = fmt.Fprintf(w, "**Created:** %s  \n", created)
		_, _ = fmt.Fprintf(w, "**Duration:** %s  \n", r.Duration)
		_, _ = fmt.Fprintf(w, "**Audio:** `%s`\n\n", r.AudioURL)

		if i < len(records)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes emphasis markers in titles
func escapeMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "\\*\\*")
	text = strings.ReplaceAll(text, "__", "\\_\\_")
	return text
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
