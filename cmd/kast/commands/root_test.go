package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestUnitsListShowsRegisteredAdapters(t *testing.T) {
	out, err := execute(t, "units", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "wafw00f")
	assert.Contains(t, out, "passive")
}

func TestScanRequiresTarget(t *testing.T) {
	_, err := execute(t, "scan")
	require.Error(t, err)
}

func TestScanDryRunShowsCommands(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "scan", "example.com", "--dry-run", "--output-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run for example.com")
	assert.Contains(t, out, "wafw00f")
	assert.Contains(t, out, "-f json")
}

func TestReportOnEmptyDir(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "report", "--output-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "0 units")
}

func TestReportRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "report", "--output-dir", dir, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported report format")
}
