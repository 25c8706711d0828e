package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	riskv1 "github.com/miradorstack/credit-risk/internal/grpc/creditriskv1"
)

const shippedArtifact = "../../models/credit_risk_model.json"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScoreHighRiskJSON(t *testing.T) {
	out, err := run(t, "score", "--model", shippedArtifact,
		"--ext1", "0.1", "--ext2", "0.1", "--ext3", "0.1", "--amount", "2000000",
		"--explain", "--format", "json")
	require.NoError(t, err)

	var resp riskv1.PredictResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "high", resp.Tier)
	require.NotNil(t, resp.Explanation)
	assert.Len(t, resp.Explanation.Contributions, 7)
}

func TestScoreLowRiskPretty(t *testing.T) {
	out, err := run(t, "score", "--model", shippedArtifact,
		"--ext1", "0.9", "--ext2", "0.9", "--ext3", "0.9", "--amount", "10000",
		"--income", "State servant", "--education", "Higher education", "--gender", "F")
	require.NoError(t, err)
	assert.Contains(t, out, "Low Risk Customer")
	assert.Contains(t, out, "16.1%")
	assert.NotContains(t, out, "E[f(x)]")
}

func TestScoreRejectsUnknownCategory(t *testing.T) {
	_, err := run(t, "score", "--model", shippedArtifact, "--gender", "X")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid category"))
}

func TestScoreMissingArtifact(t *testing.T) {
	_, err := run(t, "score", "--model", t.TempDir()+"/absent.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "artifact.load")
}
