package net

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mchmarny/riskscore/pkg/risk"
)

// APIError is a non-200 reply from a prediction server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Predict posts record to the /predict endpoint of the server at baseURL.
func Predict(ctx context.Context, baseURL string, record map[string]any) (*risk.Assessment, error) {
	b, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("error encoding record: %w", err)
	}

	url := strings.TrimRight(baseURL, "/") + "/predict"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP Post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", clientAgent)

	resp, err := GetHTTPClient().Do(req) //nolint:gosec // URL supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("error executing HTTP Post request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
			body.Error = resp.Status
		}
		return nil, &APIError{Status: resp.StatusCode, Message: body.Error}
	}

	var a risk.Assessment
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return nil, fmt.Errorf("error decoding content: %w", err)
	}
	return &a, nil
}
