package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioDir = "../harness/testdata/scenarios"

const tinyScenario = `name: tiny
capacity: 4
messages:
  - intent: {op: increment, amount: 2}
expect:
  stop: idle
  value: 2
`

func writeScenario(t *testing.T, content string) (root, file string) {
	t.Helper()
	root = t.TempDir()
	dir := filepath.Join(root, "scenarios")
	require.NoError(t, os.MkdirAll(dir, 0755))
	file = filepath.Join(dir, "tiny.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	return root, file
}

func TestTest_BundledScenariosPass(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "json"})

	out, err := execute(cmd, scenarioDir)
	require.NoError(t, err, out)

	_, data := decodeData(t, out)
	assert.Equal(t, float64(4), data["passed"])
	assert.Equal(t, float64(0), data["failed"])
}

func TestTest_Filter(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})

	out, err := execute(cmd, scenarioDir, "--filter", "rejection-*")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ rejection-stops-run")
	assert.NotContains(t, out, "increment-and-save")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTest_UpdateThenCompareGolden(t *testing.T) {
	root, file := writeScenario(t, tinyScenario)
	goldenPath := filepath.Join(root, "golden", "tiny.golden")

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), file, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ tiny (golden updated)")

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), "scenario: tiny")

	out, err = execute(NewTestCommand(&RootOptions{Format: "text"}), filepath.Dir(file))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All scenarios passed")

	require.NoError(t, os.WriteFile(goldenPath, []byte("stale\n"), 0644))
	out, err = execute(NewTestCommand(&RootOptions{Format: "text"}), file)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTest_FailedExpectation(t *testing.T) {
	_, file := writeScenario(t, `name: tiny
messages:
  - intent: {op: increment, amount: 2}
expect:
  value: 3
`)

	out, err := execute(NewTestCommand(&RootOptions{Format: "json"}), file)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp, data := decodeData(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, float64(1), data["failed"])
}

func TestTest_InvalidScenarioFails(t *testing.T) {
	_, file := writeScenario(t, "name: tiny\nbogus: true\n")

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), file)
	require.Error(t, err)
	assert.Contains(t, out, "failed to load scenario")
}

func TestTest_MissingPath(t *testing.T) {
	_, err := execute(NewTestCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_NoScenarios(t *testing.T) {
	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestFindScenarioFiles_SkipsGoldenDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "golden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.yaml"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.yml"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "golden", "c.yaml"), nil, 0644))

	files, err := findScenarioFiles(root, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.yaml"), filepath.Join(root, "b.yml")}, files)

	_, err = findScenarioFiles(root, "[")
	assert.Error(t, err)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("testdata", "golden", "x.golden"),
		goldenFilePath(filepath.Join("testdata", "scenarios", "x.yaml"), "x"))
}
