package export

import (
	"io"

	"github.com/bytedance/sonic"

	"github.com/iksnae/hypnojourney/internal"
)

// JSONExporter exports saved sessions as one pretty-printed JSON array, the
// same shape the store keeps in its slot.
type JSONExporter struct{}

// Export exports records to JSON format
func (e *JSONExporter) Export(records []internal.SavedSessionRecord, w io.Writer) error {
	enc := sonic.ConfigStd.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(nonNil(records))
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
