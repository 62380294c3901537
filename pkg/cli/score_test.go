package cli

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mchmarny/riskscore/pkg/model"
	"github.com/mchmarny/riskscore/pkg/risk"
	"github.com/mchmarny/riskscore/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func savedArtifact(t *testing.T) string {
	t.Helper()
	testService(t)
	p := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, trained.Save(p))
	return p
}

func writeRecord(t *testing.T, rec map[string]any) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "record.json")
	require.NoError(t, os.WriteFile(p, []byte(recordJSON(t, rec)), 0600))
	return p
}

func TestScoreLocal(t *testing.T) {
	a, err := scoreLocal(savedArtifact(t), testutil.HighRiskRecord())
	require.NoError(t, err)

	p, err := testService(t).Probability(testutil.HighRiskRecord())
	require.NoError(t, err)
	assert.Equal(t, risk.Assess(p), a)
}

func TestScoreLocal_MissingArtifact(t *testing.T) {
	_, err := scoreLocal(filepath.Join(t.TempDir(), "none.json"), testutil.LowRiskRecord())
	assert.ErrorIs(t, err, model.ErrArtifactMissing)
}

func TestApp_ScoreFile(t *testing.T) {
	out, err := runApp(t, "score",
		"--artifact", savedArtifact(t),
		"--input", writeRecord(t, testutil.LowRiskRecord()))
	require.NoError(t, err)

	var a risk.Assessment
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, risk.Explanation, a.Explanation)
}

func TestApp_ScoreRemote(t *testing.T) {
	srv := httptest.NewServer(makeRouter(testService(t)))
	defer srv.Close()

	out, err := runApp(t, "--format", "yaml", "score",
		"--server", srv.URL,
		"--input", writeRecord(t, testutil.HighRiskRecord()))
	require.NoError(t, err)

	var a risk.Assessment
	require.NoError(t, yaml.Unmarshal([]byte(out), &a))
	assert.Equal(t, risk.Explanation, a.Explanation)
	assert.Equal(t, risk.Tier(a.Probability), a.Score)
}

func TestApp_ScoreRemoteClientError(t *testing.T) {
	srv := httptest.NewServer(makeRouter(testService(t)))
	defer srv.Close()

	rec := testutil.LowRiskRecord()
	delete(rec, "Glucose")

	_, err := runApp(t, "score", "--server", srv.URL, "--input", writeRecord(t, rec))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing feature Glucose")
}
