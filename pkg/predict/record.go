package predict

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidBody is returned when a request body is not a JSON object.
var ErrInvalidBody = errors.New("Invalid request body")

// DecodeRecord parses a JSON object of feature values. An empty body or a
// JSON null is an empty record. Numbers are kept as json.Number so no
// precision is lost before coercion.
func DecodeRecord(r io.Reader) (map[string]any, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}

	record := map[string]any{}
	if len(bytes.TrimSpace(b)) == 0 {
		return record, nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidBody)
	}

	switch t := v.(type) {
	case nil:
		return record, nil
	case map[string]any:
		return t, nil
	default:
		return nil, fmt.Errorf("%w: expected object, got %T", ErrInvalidBody, v)
	}
}
