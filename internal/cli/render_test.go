package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/aretw0/ouvidoria/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRecord(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "record.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestReadRecord(t *testing.T) {
	r, err := ReadRecord(writeRecord(t, `
name: Alice
neighborhood: Downtown
problem_type: "3"
location: Main St
details: Pothole
`))
	require.NoError(t, err)
	assert.Equal(t, domain.ProblemInfrastructure, r.ProblemType)
	assert.Equal(t, "Alice", r.Name)

	r, err = ReadRecord(writeRecord(t, "problem_type: Health"))
	require.NoError(t, err)
	assert.Equal(t, domain.ProblemHealth, r.ProblemType)
}

func TestReadRecord_Invalid(t *testing.T) {
	_, err := ReadRecord(writeRecord(t, "problem_type: \"9\""))
	assert.ErrorContains(t, err, "out of range")

	_, err = ReadRecord(writeRecord(t, "problem_type: Noise"))
	assert.ErrorContains(t, err, "unknown problem_type")

	_, err = ReadRecord(writeRecord(t, "name: [unclosed"))
	assert.ErrorContains(t, err, "parse")

	_, err = ReadRecord(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read")
}

func TestRenderFile(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "reports")
	path, err := RenderFile(context.Background(), report.DefaultLetterhead,
		writeRecord(t, "name: Alice\nproblem_type: Other\n"), "+55", outDir)
	require.NoError(t, err)

	assert.Regexp(t, `Denuncia_.+\.pdf$`, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}
