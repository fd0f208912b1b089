package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func createSampleRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "src/math.js", `function add(a, b) {
  const sum = a + b;
  return sum;
}
const mul = (a, b) => { const p = a * b; return p; };
`)
	writeTestFile(t, dir, "src/models/user.ts", `export class User {
  greet(other: User): string {
    const msg = "hi " + other.name;
    return msg;
  }
}
`)
	writeTestFile(t, dir, "README.md", "# sample\n")
	return dir
}

type record struct {
	Name      *string  `json:"name"`
	Params    []string `json:"params"`
	Variables []string `json:"variables"`
}

func readReport(t *testing.T, path string) map[string][]record {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string][]record
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestRunBasic(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	out := filepath.Join(t.TempDir(), "analysis.json")

	var stdout, stderr bytes.Buffer
	err := run([]string{dir, "-o", out, "-q"}, &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())

	assert.Equal(t, "Analysis saved to "+out+"\n", stdout.String())

	got := readReport(t, out)
	require.Len(t, got, 2)
	assert.NotContains(t, got, "README.md")

	math := got["src/math.js"]
	require.Len(t, math, 2)
	assert.Equal(t, "add", *math[0].Name)
	assert.Equal(t, []string{"a", "b"}, math[0].Params)
	assert.Equal(t, []string{"sum"}, math[0].Variables)
	assert.Equal(t, "mul", *math[1].Name)
	assert.Equal(t, []string{"p"}, math[1].Variables)

	user := got["src/models/user.ts"]
	require.Len(t, user, 1)
	assert.Equal(t, "greet", *user[0].Name)
	assert.Equal(t, []string{"other"}, user[0].Params)
	assert.Equal(t, []string{"msg"}, user[0].Variables)
}

func TestRunStdout(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"-o", "-", "--log-level", "error", dir}, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	assert.True(t, strings.HasPrefix(out, "{\n  \"src/math.js\": ["), out)
	assert.NotContains(t, out, "Analysis saved")
	assert.Empty(t, stderr.String())
}

func TestRunTOON(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{dir, "-o", "-", "-f", "toon"}, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "files[2]{path,language,functions}:")
	assert.Contains(t, out, "  src/math.js,add,a b,sum\n")
}

func TestRunExclude(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	out := filepath.Join(t.TempDir(), "analysis.json")

	var stdout, stderr bytes.Buffer
	err := run([]string{dir, "-o", out, "--exclude", "src/models/**"}, &stdout, &stderr)
	require.NoError(t, err)

	got := readReport(t, out)
	assert.Len(t, got, 1)
	assert.Contains(t, got, "src/math.js")
}

func TestRunConfigFileInRoot(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	out := filepath.Join(t.TempDir(), "from-config.toon")
	writeTestFile(t, dir, "fnmap.yaml", "output: "+out+"\nformat: toon\nexclude:\n  - \"**/*.ts\"\n")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{dir}, &stdout, &stderr))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "files[1]{path,language,functions}:")
}

func TestRunFlagsOverrideConfig(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	tmp := t.TempDir()
	fromConfig := filepath.Join(tmp, "config.json")
	fromFlag := filepath.Join(tmp, "flag.json")
	cfgPath := filepath.Join(tmp, "custom.yaml")
	writeTestFile(t, tmp, "custom.yaml", "output: "+fromConfig+"\n")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"--config", cfgPath, "-o", fromFlag, dir}, &stdout, &stderr))

	assert.FileExists(t, fromFlag)
	assert.NoFileExists(t, fromConfig)
}

func TestRunMissingConfig(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--config", filepath.Join(dir, "nope.yaml"), dir}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}

func TestRunMissingRoot(t *testing.T) {
	t.Parallel()
	tmp := t.TempDir()
	out := filepath.Join(tmp, "analysis.json")

	var stdout, stderr bytes.Buffer
	err := run([]string{filepath.Join(tmp, "no-such-dir"), "-o", out}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-dir")
	assert.NoFileExists(t, out)
	assert.Empty(t, stdout.String())
}

func TestRunUnwritableDestination(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{dir, "-o", filepath.Join(t.TempDir(), "missing", "out.json")}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing report")
	assert.NotContains(t, stdout.String(), "Analysis saved")
}

func TestRunInvalidFormat(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{dir, "-f", "xml"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestRunEmptyTree(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "notes.txt", "nothing here")
	out := filepath.Join(t.TempDir(), "analysis.json")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{dir, "-o", out}, &stdout, &stderr))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(data))
}

func TestRunSkipIfFresh(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	out := filepath.Join(t.TempDir(), "analysis.json")

	// A report stamped in the future is newer than every source file.
	require.NoError(t, os.WriteFile(out, []byte("cached"), 0o644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(out, future, future))

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{dir, "-o", out, "--skip-if-fresh"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Analysis up to date")
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "cached", string(data))

	// A stale report is regenerated.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(out, past, past))
	stdout.Reset()
	require.NoError(t, run([]string{dir, "-o", out, "--skip-if-fresh"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Analysis saved")
	assert.Len(t, readReport(t, out), 2)
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"--version"}, &stdout, &stderr))
	assert.Equal(t, "fnmap dev\n", stdout.String())
}

func TestRunTooManyArgs(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := run([]string{"a", "b"}, &stdout, &stderr)
	require.Error(t, err)
}
