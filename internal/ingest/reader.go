// Package ingest reads the list of product codes to look up.
package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadCodes loads codes from a delimited file with a header row. The first
// field of every record is the code; file order is kept. A file with no codes
// yields an empty slice, not an error.
func ReadCodes(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open codes file: %w", err)
	}
	defer f.Close()

	codes, err := ParseCodes(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return codes, nil
}

// ParseCodes is ReadCodes over an open reader.
func ParseCodes(in io.Reader) ([]string, error) {
	r := csv.NewReader(stripBOM(in))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var codes []string
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse codes: %w", err)
		}
		line++
		if line == 1 {
			continue // header
		}

		if code := strings.TrimSpace(record[0]); code != "" {
			codes = append(codes, code)
		}
	}

	return codes, nil
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rdr, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rdr != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
