package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSet is an ActivitySet backed by a fixed name list.
type stubSet map[string]bool

func (s stubSet) Has(name string) bool { return s[name] }

var knownActivities = stubSet{"analyze": true, "document": true, "structure": true}

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contexts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeCatalog(t, `
contexts:
  - name: general-analyst
    description: broad repository analysis
    focus: [quality, structure]
    enabled_activities: [analyze, document]
    prompt_bundle: general
    output_template: executive
    depth: deep
  - name: quick-look
    description: fast shallow pass
    enabled_activities: [analyze]
    depth: shallow
`)

	store, err := Load(path, knownActivities)
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	ctx, err := store.Get("general-analyst")
	require.NoError(t, err)
	assert.Equal(t, []string{"analyze", "document"}, ctx.EnabledActivities)
	assert.Equal(t, DepthDeep, ctx.Depth)
	assert.Equal(t, "executive", ctx.OutputTemplate)
	assert.True(t, ctx.Enabled("analyze"))
	assert.False(t, ctx.Enabled("structure"))

	all := store.All()
	require.Len(t, all, 2)
	assert.Equal(t, "general-analyst", all[0].Name, "catalog order preserved")
	assert.Equal(t, "quick-look", all[1].Name)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeCatalog(t, `
contexts:
  - name: minimal
    enabled_activities: [analyze]
`)

	store, err := Load(path, knownActivities)
	require.NoError(t, err)

	ctx, err := store.Get("minimal")
	require.NoError(t, err)
	assert.Equal(t, DepthStandard, ctx.Depth)
	assert.Equal(t, "standard", ctx.OutputTemplate)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing file is rejected",
			content: "", // handled below with a bogus path
		},
		{
			name: "unknown activity rejects whole catalog",
			content: `
contexts:
  - name: good
    enabled_activities: [analyze]
  - name: bad
    enabled_activities: [analyze, optimize]
`,
		},
		{
			name: "empty activity list",
			content: `
contexts:
  - name: empty
    enabled_activities: []
`,
		},
		{
			name: "missing name",
			content: `
contexts:
  - enabled_activities: [analyze]
`,
		},
		{
			name: "duplicate context name",
			content: `
contexts:
  - name: twice
    enabled_activities: [analyze]
  - name: twice
    enabled_activities: [document]
`,
		},
		{
			name: "duplicate enabled activity",
			content: `
contexts:
  - name: doubled
    enabled_activities: [analyze, analyze]
`,
		},
		{
			name: "bad depth",
			content: `
contexts:
  - name: deep-fried
    enabled_activities: [analyze]
    depth: exhaustive
`,
		},
		{
			name:    "no contexts",
			content: "contexts: []\n",
		},
		{
			name:    "malformed yaml",
			content: "contexts: [\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "does-not-exist.yaml")
			if tt.content != "" {
				path = writeCatalog(t, tt.content)
			}

			_, err := Load(path, knownActivities)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestStore_GetUnknown(t *testing.T) {
	store, err := New([]Context{
		{Name: "only", EnabledActivities: []string{"analyze"}},
	}, knownActivities)
	require.NoError(t, err)

	_, err = store.Get("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNew_NilActivitySetSkipsSubsetCheck(t *testing.T) {
	// A nil set means "validate shape only"; used when a catalog is
	// inspected before any registry exists.
	store, err := New([]Context{
		{Name: "loose", EnabledActivities: []string{"anything"}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}
