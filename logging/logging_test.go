package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults", cfg: Config{}},
		{name: "text format", cfg: Config{Level: "debug", Format: "text"}},
		{name: "file output", cfg: Config{Output: filepath.Join(t.TempDir(), "optqo.log")}},
		{name: "bad level", cfg: Config{Level: "loud"}, wantErr: true},
		{name: "bad format", cfg: Config{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
		})
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.Add("analyze", Entry{Message: "one"})
	c.Add("analyze", Entry{Message: "two"})
	c.Add("document", Entry{Message: "three"})

	assert.Len(t, c.Logs("analyze"), 2)
	assert.Nil(t, c.Logs("missing"))

	all := c.All()
	require.Len(t, all, 2)

	// The returned copies must be detached from internal state.
	all["analyze"][0].Message = "mutated"
	assert.Equal(t, "one", c.Logs("analyze")[0].Message)
}

func TestCollector_ConcurrentAdds(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Add("analyze", Entry{Message: "m"})
			}
		}()
	}
	wg.Wait()

	assert.Len(t, c.Logs("analyze"), 1000)
}

func TestCaptureHandler(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	collector := NewCollector()

	logger := CaptureLogger(base, collector, "analyze")
	logger.Info("walking files", "count", 3, "err", errors.New("boom"))

	entries := collector.Logs("analyze")
	require.Len(t, entries, 1)
	assert.Equal(t, "walking files", entries[0].Message)
	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, int64(3), entries[0].Attributes["count"])
	assert.Equal(t, "boom", entries[0].Attributes["err"], "errors flatten to strings")

	assert.Contains(t, buf.String(), "walking files", "records still reach the underlying handler")
}

func TestCaptureHandler_WithPreservesCapture(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	collector := NewCollector()

	logger := CaptureLogger(base, collector, "analyze").With("context", "general-analyst")
	logger.Info("still captured")

	entries := collector.Logs("analyze")
	require.Len(t, entries, 1)
	assert.Equal(t, "general-analyst", entries[0].Attributes["context"])
}

func TestCaptureHandler_CapturesBelowHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	collector := NewCollector()

	logger := CaptureLogger(base, collector, "analyze")
	logger.Debug("filtered from output, kept in capture")

	require.Len(t, collector.Logs("analyze"), 1)
	assert.NotContains(t, buf.String(), "filtered from output")
}
