package export

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/iksnae/hypnojourney/internal"
)

// YAMLExporter exports saved sessions in YAML format
type YAMLExporter struct{}

// Export exports records to YAML format
func (e *YAMLExporter) Export(records []internal.SavedSessionRecord, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(nonNil(records))
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
