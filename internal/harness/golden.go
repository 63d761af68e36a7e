package harness

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// RunWithGolden executes the scenario at scenarioPath and asserts its trace
// against the golden snapshot named after the scenario. Regenerate goldens
// with `go test -update`.
func RunWithGolden(t *testing.T, scenarioPath string) {
	t.Helper()

	s, err := LoadScenario(scenarioPath)
	require.NoError(t, err)

	tr, err := Run(s, filepath.Dir(scenarioPath))
	require.NoError(t, err)

	data, err := json.MarshalIndent(tr, "", "  ")
	require.NoError(t, err)
	data = append(data, '\n')

	g := goldie.New(t)
	g.Assert(t, s.Name, data)
}
