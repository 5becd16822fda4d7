package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/optqo/optqo/activity"
)

// Document returns the summary-writer activity. It re-runs the census
// over the target and writes a single summary artifact into the output
// directory.
func Document() activity.Descriptor {
	return activity.Descriptor{
		Name:        "document",
		Description: "writes a target summary artifact to the output directory",
		Handle:      activity.HandleFunc(runDocument),
		Options: map[string]activity.OptionSpec{
			"format": {
				Description: "artifact format, markdown or json",
				Default:     "markdown",
			},
		},
	}
}

func runDocument(ctx context.Context, target string, opts activity.Options) (activity.Result, error) {
	census, err := runDiscover(ctx, target, opts)
	if err != nil {
		return activity.Result{}, err
	}

	if opts.Output == "" {
		return activity.Result{}, fmt.Errorf("no output directory configured")
	}
	if err := os.MkdirAll(opts.Output, 0755); err != nil {
		return activity.Result{}, fmt.Errorf("creating output directory: %w", err)
	}

	format := opts.Param("format", "markdown")
	var path string
	switch format {
	case "markdown":
		path = filepath.Join(opts.Output, "target_summary.md")
		err = os.WriteFile(path, renderMarkdown(target, census.Summary), 0644)
	case "json":
		path = filepath.Join(opts.Output, "target_summary.json")
		var data []byte
		data, err = json.MarshalIndent(map[string]any{
			"target":       target,
			"generated_at": time.Now().UTC().Format(time.RFC3339),
			"census":       census.Summary,
		}, "", "  ")
		if err == nil {
			err = os.WriteFile(path, data, 0644)
		}
	default:
		return activity.Result{}, fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return activity.Result{}, fmt.Errorf("writing summary: %w", err)
	}

	return activity.Result{
		Outcome:   activity.OutcomeSuccess,
		Summary:   map[string]any{"pages_written": 1},
		Artifacts: []string{path},
	}, nil
}

func renderMarkdown(target string, census map[string]any) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# Target Summary\n\n")
	fmt.Fprintf(&b, "Target: `%s`\n\n", target)
	fmt.Fprintf(&b, "- Files: %v\n", census["files_seen"])
	fmt.Fprintf(&b, "- Total bytes: %v\n", census["bytes_total"])
	if langs, ok := census["languages"].(map[string]int); ok {
		fmt.Fprintf(&b, "\n## Languages\n\n")
		for _, lang := range sortedKeys(langs) {
			fmt.Fprintf(&b, "- %s: %d\n", lang, langs[lang])
		}
	}
	return []byte(b.String())
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
