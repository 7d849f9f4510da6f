package output

import (
	"os"
	"strings"

	"github.com/law-makers/filmexport/pkg/models"
	"github.com/rs/zerolog/log"
)

// SaveCSV writes the header followed by one line per record, replacing any
// existing file at path.
func SaveCSV(records []models.Record, path string) error {
	logSaving(len(records), path)
	return os.WriteFile(path, []byte(EncodeCSV(records)), 0644)
}

// EncodeCSV renders the complete export, every line newline-terminated
func EncodeCSV(records []models.Record) string {
	var sb strings.Builder
	sb.Grow(64 * (len(records) + 1))

	sb.WriteString(models.CSVHeader)
	sb.WriteByte('\n')
	for _, r := range records {
		sb.WriteString(r.CSVLine())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func logSaving(count int, path string) {
	if count == 0 {
		log.Warn().Str("file", path).Msg("No movies to save, the file will be written anyway")
		return
	}
	log.Info().Int("movies", count).Str("file", path).Msgf("Saving a total of %d movies", count)
}
