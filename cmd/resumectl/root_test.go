package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-ranker/internal/schema"
	"resume-ranker/internal/scoring"
)

const sampleResume = "Skills\nPython, Docker, React, AWS\n\nProjects\nBuilt a React dashboard using Python and Docker, deployed to AWS for students."

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleResume), 0o644))
	return path
}

func TestParsePrintsSchema(t *testing.T) {
	out, err := execute(t, "parse", writeSample(t), "--batch", "2026", "--department", "CSE")
	require.NoError(t, err)

	var r schema.Resume
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "2026", r.Meta.Batch)
	assert.Equal(t, "CSE", r.Meta.Department)
	assert.NotEmpty(t, r.Skills)
}

func TestScorePrintsTotal(t *testing.T) {
	out, err := execute(t, "score", writeSample(t))
	require.NoError(t, err)

	var res scoring.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Positive(t, res.Total)
	assert.LessOrEqual(t, res.Total, 100)
}

func TestParseMissingFile(t *testing.T) {
	_, err := execute(t, "parse", filepath.Join(t.TempDir(), "nope.pdf"))
	assert.Error(t, err)
}

func TestMatchRequiresJD(t *testing.T) {
	_, err := execute(t, "match")
	assert.ErrorContains(t, err, "jd")
}

func TestBackfillAgainstMemoryRepos(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SQS_QUEUE_URL", "")
	t.Setenv("ENV", "dev")
	t.Setenv("LOCAL_STORE_DIR", t.TempDir())
	chdir(t, t.TempDir())

	out, err := execute(t, "backfill")
	require.NoError(t, err)
	assert.Equal(t, "enqueued 0\n", out)
}

func TestExportCohortWritesWorkbook(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SQS_QUEUE_URL", "")
	t.Setenv("LOCAL_STORE_DIR", t.TempDir())
	dir := t.TempDir()
	chdir(t, dir)

	out, err := execute(t, "export", "cohort", "--batch", "2026", "-o", "cohort.xlsx")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 0 rows to cohort.xlsx")

	info, err := os.Stat(filepath.Join(dir, "cohort.xlsx"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores it when the test ends.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
