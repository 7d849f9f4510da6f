package output

import (
	"fmt"

	"github.com/law-makers/filmexport/pkg/models"
)

// FileSink writes the full result set to a single destination file
type FileSink struct {
	Path   string
	Format models.OutputFormat
}

// NewFileSink creates a sink for path in the given format
func NewFileSink(path string, format models.OutputFormat) (*FileSink, error) {
	switch format {
	case "", models.FormatCSV:
		format = models.FormatCSV
	case models.FormatJSON:
	default:
		return nil, fmt.Errorf("unsupported output format: %s (must be csv or json)", format)
	}
	if path == "" {
		return nil, fmt.Errorf("output path is required")
	}
	return &FileSink{Path: path, Format: format}, nil
}

// Flush writes records to the destination
func (s *FileSink) Flush(records []models.Record) error {
	switch s.Format {
	case models.FormatJSON:
		return SaveJSON(records, s.Path)
	default:
		return SaveCSV(records, s.Path)
	}
}
