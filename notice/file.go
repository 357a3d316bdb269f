package notice

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrNoResult is returned when no result file has been written yet.
var ErrNoResult = errors.New("no harvest result available")

// Encode writes the result as indented JSON. Non-ASCII text and HTML
// characters are written unescaped.
func Encode(w io.Writer, result *HarvestResult) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode harvest result: %w", err)
	}
	return nil
}

// WriteFile saves the result to path, creating parent directories as needed.
func WriteFile(path string, result *HarvestResult) error {
	var buf bytes.Buffer
	if err := Encode(&buf, result); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write harvest result: %w", err)
	}

	return nil
}

// ReadFile loads a result previously written by WriteFile. A missing file
// yields ErrNoResult.
func ReadFile(path string) (*HarvestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoResult
		}
		return nil, fmt.Errorf("failed to read harvest result: %w", err)
	}

	var result HarvestResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal harvest result: %w", err)
	}

	return &result, nil
}
