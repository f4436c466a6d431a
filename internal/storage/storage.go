package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/maltedev/price-scraper/internal/models"
)

var ErrNoRows = errors.New("no rows to write")

// CSVWriter exports the rows of a run to a timestamped file under dir.
type CSVWriter struct {
	dir string
	now func() time.Time
}

func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir, now: time.Now}
}

// OutputPath is dir/resultados_<ISO-8601 UTC timestamp>.csv with ':' and
// '.' in the timestamp replaced by '-'.
func OutputPath(dir string, t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000") + "Z"
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return filepath.Join(dir, "resultados_"+stamp+".csv")
}

// Write creates the output directory if needed and writes rows in order.
// The file appears only once it is complete.
func (w *CSVWriter) Write(rows []models.ResultRow) (string, error) {
	if len(rows) == 0 {
		return "", ErrNoRows
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := OutputPath(w.dir, w.now())

	// Write to temp file first for atomicity
	tmpFile := filename + ".tmp"
	if err := writeCSV(tmpFile, rows); err != nil {
		os.Remove(tmpFile)
		return "", err
	}

	if err := os.Rename(tmpFile, filename); err != nil {
		os.Remove(tmpFile)
		return "", fmt.Errorf("failed to move results into place: %w", err)
	}

	return filename, nil
}

func writeCSV(filename string, rows []models.ResultRow) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := WriteRows(file, rows); err != nil {
		return err
	}

	return file.Sync()
}

// WriteRows encodes rows as CSV with the export header.
func WriteRows(w io.Writer, rows []models.ResultRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(models.CSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, row := range rows {
		if err := writer.Write(row.Record()); err != nil {
			return fmt.Errorf("failed to write row %s/%s: %w", row.Code, row.Store, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
