package builtin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optqo/optqo/activity"
)

// sampleTarget builds a small tree:
//
//	main.go
//	docs/README.md
//	src/util.py
//	src/deep/core.py
//	.git/config        (ignored)
func sampleTarget(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write := func(rel, body string) {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}
	write("main.go", "package main\n")
	write("docs/README.md", "# readme\n")
	write("src/util.py", "x = 1\n")
	write("src/deep/core.py", "y = 2\n")
	write(".git/config", "[core]\n")
	return dir
}

func TestRegister(t *testing.T) {
	r := activity.NewRegistry()
	require.NoError(t, Register(r))
	assert.Equal(t, []string{"discover", "document", "structure"}, r.Names())

	// Registering twice collides on every name.
	assert.ErrorIs(t, Register(r), activity.ErrDuplicate)
}

func TestDiscover(t *testing.T) {
	target := sampleTarget(t)

	res, err := runDiscover(context.Background(), target, activity.Options{Depth: "standard"})
	require.NoError(t, err)
	assert.Equal(t, activity.OutcomeSuccess, res.Outcome)
	assert.Equal(t, 4, res.Summary["files_seen"])
	assert.Equal(t, map[string]int{
		"Go":       1,
		"Markdown": 1,
		"Python":   2,
	}, res.Summary["languages"])
}

func TestDiscoverShallow(t *testing.T) {
	target := sampleTarget(t)

	res, err := runDiscover(context.Background(), target, activity.Options{Depth: "shallow"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary["files_seen"])
}

func TestDiscoverSingleFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "lone.sas")
	require.NoError(t, os.WriteFile(file, []byte("data work.a; run;\n"), 0644))

	res, err := runDiscover(context.Background(), file, activity.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary["files_seen"])
	assert.Equal(t, map[string]int{"SAS": 1}, res.Summary["languages"])
}

func TestDiscoverIdempotent(t *testing.T) {
	target := sampleTarget(t)

	first, err := runDiscover(context.Background(), target, activity.Options{})
	require.NoError(t, err)
	second, err := runDiscover(context.Background(), target, activity.Options{})
	require.NoError(t, err)
	assert.Equal(t, first.Summary, second.Summary)
}

func TestStructure(t *testing.T) {
	target := sampleTarget(t)

	res, err := runStructure(context.Background(), target, activity.Options{})
	require.NoError(t, err)
	assert.Equal(t, activity.OutcomeSuccess, res.Outcome)
	assert.Equal(t, 3, res.Summary["directories"])
	assert.Equal(t, 3, res.Summary["max_depth"])
	assert.Equal(t, 3, res.Summary["max_fanout"])
	assert.Equal(t, []string{"docs", "main.go", "src"}, res.Summary["top_level"])
}

func TestDocumentMarkdown(t *testing.T) {
	target := sampleTarget(t)
	out := t.TempDir()

	res, err := runDocument(context.Background(), target, activity.Options{Output: out})
	require.NoError(t, err)
	require.Len(t, res.Artifacts, 1)
	assert.Equal(t, 1, res.Summary["pages_written"])

	data, err := os.ReadFile(res.Artifacts[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Target Summary")
	assert.Contains(t, string(data), "Python: 2")
}

func TestDocumentJSON(t *testing.T) {
	target := sampleTarget(t)
	out := t.TempDir()

	res, err := runDocument(context.Background(), target, activity.Options{
		Output: out,
		Params: map[string]string{"format": "json"},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "target_summary.json"), res.Artifacts[0])
}

func TestDocumentBadFormat(t *testing.T) {
	_, err := runDocument(context.Background(), t.TempDir(), activity.Options{
		Output: t.TempDir(),
		Params: map[string]string{"format": "pdf"},
	})
	assert.Error(t, err)
}

func TestDocumentNoOutput(t *testing.T) {
	_, err := runDocument(context.Background(), t.TempDir(), activity.Options{})
	assert.Error(t, err)
}
