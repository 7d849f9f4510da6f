package output

import (
	"encoding/json"
	"os"

	"github.com/law-makers/filmexport/pkg/models"
)

// SaveJSON writes the records as an indented JSON array to path
func SaveJSON(records []models.Record, path string) error {
	logSaving(len(records), path)

	if records == nil {
		records = []models.Record{}
	}
	content, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(content, '\n'), 0644)
}
