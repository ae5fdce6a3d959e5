package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const samplePlan = `SEMANA 7 – 1º BIMESTRE
16/02 – seg
O eu, o outro e o nós
(EI01EO03) Interagir com crianças da mesma faixa etária e adultos. Ampliar as relações interpessoais nas rotinas diárias.
17/02 – ter
Corpo, gestos e movimentos
(EI01CG01) Movimentar as partes do corpo para exprimir emoções. Explorar gestos e movimentos em diferentes espaços.
`

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plano.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCmd_YAML(t *testing.T) {
	out, err := execute("parse", "--file", writePlan(t, samplePlan), "--year", "2026", "--output", "yaml")
	require.NoError(t, err)

	var res struct {
		Entries []struct {
			Campo         string `yaml:"campo"`
			ObjectiveCode string `yaml:"objective_code"`
			WeekOfYear    int    `yaml:"week_of_year"`
		} `yaml:"entries"`
		TotalExtracted int      `yaml:"total_extracted"`
		Errors         []string `yaml:"errors"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.TotalExtracted)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "EO", res.Entries[0].Campo)
	assert.Equal(t, "EI01CG01", res.Entries[1].ObjectiveCode)
	assert.Equal(t, 7, res.Entries[1].WeekOfYear)
	assert.Empty(t, res.Errors)
}

func TestParseCmd_ProblemsExitPartial(t *testing.T) {
	plan := samplePlan + "18/02 – xyz\nCorpo, gestos e movimentos\n(EI01CG02) Explorar o espaço com o corpo todo. Engatinhar e andar em circuitos.\n"

	out, err := execute("parse", "--file", writePlan(t, plan), "--year", "2026")

	var ee *exitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, exitPartial, ee.code)
	assert.Contains(t, out, `"total_extracted": 2`)
	assert.Contains(t, out, "unrecognized day-of-week")
}

func TestRootCmd_UnknownOutput(t *testing.T) {
	_, err := execute("parse", "--file", writePlan(t, samplePlan), "--output", "xml")

	var ee *exitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, exitUsage, ee.code)
}

func TestRootCmd_FileRequired(t *testing.T) {
	_, err := execute("parse")
	assert.Error(t, err)
}

func TestImportCmd_MatrixMustBeUUID(t *testing.T) {
	_, err := execute("dry-run", "--file", writePlan(t, samplePlan), "--matrix", "mx-2026", "--user", "u-1", "--tenant", "t-1")

	var ee *exitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, exitUsage, ee.code)
	assert.Contains(t, ee.err.Error(), "--matrix")
}

func TestImportOptions_Caller(t *testing.T) {
	_, err := importOptions{userID: "u-1"}.caller(nil)
	assert.Error(t, err, "tenant is required without a token")

	c, err := importOptions{userID: "u-1", tenantID: "t-1", role: "admin"}.caller(nil)
	require.NoError(t, err)
	assert.Equal(t, "t-1", c.TenantID)
	assert.Equal(t, "admin", c.Role)
}
