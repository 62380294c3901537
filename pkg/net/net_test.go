package net

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mchmarny/riskscore/pkg/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPClient(t *testing.T) {
	c := GetHTTPClient()
	require.NotNil(t, c)
	assert.Equal(t, reqTransport, c.Transport)
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data.csv":
			_, _ = w.Write([]byte("Glucose,Outcome\n85,0\n"))
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()

	t.Run("ok", func(t *testing.T) {
		p := filepath.Join(dir, "nested", "data.csv")
		require.NoError(t, Download(t.Context(), srv.URL+"/data.csv", p))
		b, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, "Glucose,Outcome\n85,0\n", string(b))
	})

	t.Run("not found", func(t *testing.T) {
		p := filepath.Join(dir, "missing.csv")
		err := Download(t.Context(), srv.URL+"/nope", p)
		assert.ErrorIs(t, err, ErrorURLNotFound)
		assert.NoFileExists(t, p)
	})

	t.Run("server error", func(t *testing.T) {
		p := filepath.Join(dir, "broken.csv")
		assert.Error(t, Download(t.Context(), srv.URL+"/broken", p))
		assert.NoFileExists(t, p)
	})
}

func TestPredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)

		var rec map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))

		w.Header().Set("Content-Type", "application/json")
		if _, ok := rec["BMI"]; !ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Missing feature BMI"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(risk.Assess(0.12))
	}))
	defer srv.Close()

	t.Run("ok", func(t *testing.T) {
		a, err := Predict(t.Context(), srv.URL+"/", map[string]any{"BMI": 22})
		require.NoError(t, err)
		assert.Equal(t, risk.Assess(0.12), a)
	})

	t.Run("client error", func(t *testing.T) {
		_, err := Predict(t.Context(), srv.URL, map[string]any{})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Equal(t, "Missing feature BMI", apiErr.Message)
	})
}
