// Package dataset reads the brand metrics export.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jamespassby/retail-dashboard-final/pkg/score"
)

// ErrInvalidFormat is returned when the document is not a non-empty JSON
// array of brand objects.
var ErrInvalidFormat = errors.New("invalid data format")

// Load reads and decodes the dataset file at path.
func Load(path string) ([]score.BrandMetrics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	brands, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", path, err)
	}
	return brands, nil
}

// Decode parses a JSON array of brand objects. Every brand is returned with
// its metric arrays right-aligned to a common length.
func Decode(r io.Reader) ([]score.BrandMetrics, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, ErrInvalidFormat
	}

	var brands []score.BrandMetrics
	if err := json.Unmarshal(data, &brands); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if len(brands) == 0 {
		return nil, ErrInvalidFormat
	}

	for i := range brands {
		brands[i] = brands[i].Aligned()
	}
	return brands, nil
}
