package export

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"

	"github.com/iksnae/hypnojourney/internal"
)

// JSONLExporter exports saved sessions in JSONL format (one record per line)
type JSONLExporter struct{}

// Export exports records to JSONL format
func (e *JSONLExporter) Export(records []internal.SavedSessionRecord, w io.Writer) error {
	enc := sonic.ConfigStd.NewEncoder(w)

	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode session %s: %w", r.ID, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
