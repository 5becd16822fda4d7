package activity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandle() Handle {
	return HandleFunc(func(ctx context.Context, target string, opts Options) (Result, error) {
		return Result{Outcome: OutcomeSuccess}, nil
	})
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register(Descriptor{Name: "analyze", Handle: noopHandle()})
	require.NoError(t, err)

	desc, err := reg.Resolve("analyze")
	require.NoError(t, err)
	assert.Equal(t, "analyze", desc.Name)
	assert.NotNil(t, desc.Handle)
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(Descriptor{Name: "analyze", Handle: noopHandle()}))

	err := reg.Register(Descriptor{Name: "analyze", Handle: noopHandle()})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Resolve("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_InvalidDescriptors(t *testing.T) {
	reg := NewRegistry()

	assert.Error(t, reg.Register(Descriptor{Handle: noopHandle()}), "missing name")
	assert.Error(t, reg.Register(Descriptor{Name: "analyze"}), "missing handle")
}

func TestRegistry_NamesSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"document", "analyze", "structure"} {
		require.NoError(t, reg.Register(Descriptor{Name: name, Handle: noopHandle()}))
	}

	assert.Equal(t, []string{"analyze", "document", "structure"}, reg.Names())
	assert.True(t, reg.Has("analyze"))
	assert.False(t, reg.Has("optimize"))
}

func TestOptions_Param(t *testing.T) {
	opts := Options{Params: map[string]string{"max_files": "10"}}

	assert.Equal(t, "10", opts.Param("max_files", "50000"))
	assert.Equal(t, "50000", opts.Param("unset", "50000"))
}

func TestStatusHandler(t *testing.T) {
	sh := NewStatusHandler()
	sh.Set("analyze", "walking files")
	sh.Set("document", "rendering")
	sh.Set("analyze", "done")

	assert.Equal(t, "done", sh.Get("analyze"))
	assert.Equal(t, "", sh.Get("missing"))

	all := sh.All()
	assert.Len(t, all, 2)
	assert.Equal(t, "rendering", all["document"])

	// Mutating the copy must not affect the handler.
	all["document"] = "changed"
	assert.Equal(t, "rendering", sh.Get("document"))
}
