// Package csvutil reads lookup keys from user-supplied files for bulk
// lookups.
package csvutil

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ReadKeys loads lookup keys from path. Files ending in .csv are parsed as
// CSV with the key taken from the first column; a leading header row is
// recognized by carrying no digits and skipped. Any other file is read as
// one key per line, ignoring blank lines and #-comments.
func ReadKeys(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if fi, err := f.Stat(); err != nil || fi.Size() == 0 {
		return nil, errors.New("key file is empty or cannot be read")
	}

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return readCSVKeys(f)
	}
	return readLineKeys(f)
}

func readCSVKeys(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	// Key files come from spreadsheets with any number of extra columns.
	reader.FieldsPerRecord = -1

	var keys []string
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Warn("Skipping malformed CSV record", "error", err)
			continue
		}
		if len(record) == 0 {
			continue
		}

		key := strings.TrimSpace(record[0])
		if first {
			first = false
			if !strings.ContainsAny(key, "0123456789") {
				// Header row, e.g. "cep" or "cnpj,name".
				continue
			}
		}
		if key == "" {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func readLineKeys(r io.Reader) ([]string, error) {
	var keys []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return keys, nil
}
