package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-labs/specsync/internal/core/domain"
)

// fakeRunner scripts git output keyed by the joined argument list.
type fakeRunner struct {
	responses map[string]string
	errors    map[string]error
	calls     []string
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	key := strings.Join(args, " ")
	f.calls = append(f.calls, key)
	if err, ok := f.errors[key]; ok {
		return nil, err
	}
	out, ok := f.responses[key]
	if !ok {
		return nil, errors.New("unexpected git invocation: " + key)
	}
	return []byte(out), nil
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		responses: make(map[string]string),
		errors:    make(map[string]error),
	}
}

func TestMonitor_Check_FirstPollBaselines(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["rev-parse origin/main"] = "abc123\n"

	mon := NewWithRunner(t.TempDir(), "main", runner)

	events, err := mon.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, "abc123", mon.LastCommit())
}

func TestMonitor_Check_NoNewCommit(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["rev-parse origin/main"] = "abc123\n"

	mon := NewWithRunner(t.TempDir(), "main", runner)
	mon.SetLastCommit("abc123")

	events, err := mon.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)

	// A second poll with the same head also yields nothing.
	events, err = mon.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestMonitor_Check_SourceUnavailable(t *testing.T) {
	runner := newFakeRunner()
	runner.errors["rev-parse origin/main"] = errors.New("exit status 128")

	mon := NewWithRunner(t.TempDir(), "main", runner)
	mon.SetLastCommit("abc123")

	events, err := mon.Check(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Empty(t, events)
	assert.Equal(t, "abc123", mon.LastCommit(), "state unchanged on failure")
}

func TestMonitor_Check_FiltersNonSpecFiles(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["rev-parse origin/main"] = "new456\n"
	runner.responses["diff --name-status old123..new456"] = "M\tdocs/openapi.yaml\nM\tREADME.md\n"
	runner.responses["log -1 --pretty=%B new456"] = "update api\n"

	mon := NewWithRunner(t.TempDir(), "main", runner)
	mon.SetLastCommit("old123")

	events, err := mon.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "docs/openapi.yaml", events[0].FilePath)
	assert.Equal(t, domain.SourceGit, events[0].Source)
	assert.Equal(t, "new456", mon.LastCommit())
}

func TestMonitor_Check_PreservesDiffOrderAndMessage(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "specs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "specs", "openapi.yaml"),
		[]byte("openapi: 3.0.0\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "specs", "swagger.json"),
		[]byte(`{"swagger": "2.0"}`), 0o644))

	runner := newFakeRunner()
	runner.responses["rev-parse origin/main"] = "new456\n"
	runner.responses["diff --name-status old123..new456"] =
		"M\tspecs/openapi.yaml\nA\tspecs/swagger.json\n"
	runner.responses["log -1 --pretty=%B new456"] = "touch both specs\n"

	mon := NewWithRunner(repo, "main", runner)
	mon.SetLastCommit("old123")

	events, err := mon.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "specs/openapi.yaml", events[0].FilePath)
	assert.Equal(t, domain.ChangeModified, events[0].ChangeType)
	assert.Equal(t, "specs/swagger.json", events[1].FilePath)
	assert.Equal(t, domain.ChangeCreated, events[1].ChangeType)

	for _, ev := range events {
		assert.Equal(t, "touch both specs", ev.CommitMessage)
		assert.NotEmpty(t, ev.ContentHash)
		assert.NotNil(t, ev.Content)
	}
}

func TestMonitor_Check_DeletedFileCarriesNoContent(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["rev-parse origin/main"] = "new456\n"
	runner.responses["diff --name-status old123..new456"] = "D\tapi/openapi.json\n"
	runner.responses["log -1 --pretty=%B new456"] = "drop the spec\n"

	mon := NewWithRunner(t.TempDir(), "main", runner)
	mon.SetLastCommit("old123")

	events, err := mon.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.ChangeDeleted, events[0].ChangeType)
	assert.Nil(t, events[0].Content)
	assert.Empty(t, events[0].ContentHash)
}

func TestMonitor_Check_UnparsableFileKeepsHash(t *testing.T) {
	repo := t.TempDir()
	raw := []byte(`{"openapi": not-json`)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "openapi.json"), raw, 0o644))

	runner := newFakeRunner()
	runner.responses["rev-parse origin/main"] = "new456\n"
	runner.responses["diff --name-status old123..new456"] = "M\topenapi.json\n"
	runner.responses["log -1 --pretty=%B new456"] = "broken spec\n"

	mon := NewWithRunner(repo, "main", runner)
	mon.SetLastCommit("old123")

	events, err := mon.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].Content, "unparsable content is absent")
	assert.Equal(t, domain.HashContent(raw), events[0].ContentHash)
}

func TestMonitor_Check_MissingFileYieldsEmptyHash(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["rev-parse origin/main"] = "new456\n"
	runner.responses["diff --name-status old123..new456"] = "M\tgone/openapi.yaml\n"
	runner.responses["log -1 --pretty=%B new456"] = "msg\n"

	mon := NewWithRunner(t.TempDir(), "main", runner)
	mon.SetLastCommit("old123")

	events, err := mon.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].Content)
	assert.Empty(t, events[0].ContentHash)
}

func TestMonitor_Check_DiffFailureKeepsState(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["rev-parse origin/main"] = "new456\n"
	runner.errors["diff --name-status old123..new456"] = errors.New("exit status 128")

	mon := NewWithRunner(t.TempDir(), "main", runner)
	mon.SetLastCommit("old123")

	_, err := mon.Check(context.Background())
	require.Error(t, err)
	assert.Equal(t, "old123", mon.LastCommit(),
		"head advances only after a successful diff so the range is reconsidered")
}

func TestMonitor_Check_CommitMessageBestEffort(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["rev-parse origin/main"] = "new456\n"
	runner.responses["diff --name-status old123..new456"] = "D\topenapi.yaml\n"
	runner.errors["log -1 --pretty=%B new456"] = errors.New("exit status 128")

	mon := NewWithRunner(t.TempDir(), "main", runner)
	mon.SetLastCommit("old123")

	events, err := mon.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].CommitMessage)
}

func TestMonitor_DefaultBranch(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["rev-parse origin/main"] = "abc\n"

	mon := NewWithRunner(t.TempDir(), "", runner)
	_, err := mon.Check(context.Background())
	require.NoError(t, err)
	assert.Contains(t, runner.calls, "rev-parse origin/main")
}

func TestParseNameStatus(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want []diffEntry
	}{
		{
			name: "added modified deleted",
			out:  "A\ta.yaml\nM\tb.yaml\nD\tc.yaml\n",
			want: []diffEntry{
				{domain.ChangeCreated, "a.yaml"},
				{domain.ChangeModified, "b.yaml"},
				{domain.ChangeDeleted, "c.yaml"},
			},
		},
		{
			name: "rename uses post-rename path and maps to modified",
			out:  "R100\told/api.yaml\tnew/api.yaml\n",
			want: []diffEntry{{domain.ChangeModified, "new/api.yaml"}},
		},
		{
			name: "unknown status defaults to modified",
			out:  "T\tapi.yaml\n",
			want: []diffEntry{{domain.ChangeModified, "api.yaml"}},
		},
		{
			name: "blank and malformed lines skipped",
			out:  "\nnonsense\nM\tapi.yaml\n\n",
			want: []diffEntry{{domain.ChangeModified, "api.yaml"}},
		},
		{
			name: "empty output",
			out:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseNameStatus(tt.out))
		})
	}
}
