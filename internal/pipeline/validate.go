package pipeline

import (
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/zeebo/xxh3"
)

// sampleRows is how many leading data rows the structural validator
// inspects. This is a cheap sanity gate, not schema validation; the loader
// re-checks width on every row anyway.
const sampleRows = 5

// ValidateStructure checks that path exists and that each of the first
// sampleRows rows has exactly expectedCols columns. The returned error wraps
// fs.ErrNotExist for a missing file, or is a *ValidationError identifying
// the first offending row. Files shorter than the sample pass if every
// present row matches.
func ValidateStructure(path string, expectedCols int) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("input file %q: %w", path, err)
		}
		return fmt.Errorf("stat input file %q: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input file %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	for row := 1; row <= sampleRows; row++ {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read %q row %d: %w", path, row, err)
		}
		if len(fields) != expectedCols {
			return &ValidationError{Path: path, Row: row, Expected: expectedCols, Got: len(fields)}
		}
	}
	return nil
}

// Fingerprint streams the file through a 128-bit xxh3 digest and returns the
// 32-character hex rendering. Logged per run so a load can be traced back to
// the exact input bytes.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("fingerprint %q: %w", path, err)
	}
	sum := h.Sum128().Bytes()
	return hex.EncodeToString(sum[:]), nil
}
