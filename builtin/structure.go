package builtin

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/optqo/optqo/activity"
)

// Structure returns the directory-shape activity. It summarizes how
// the target is laid out: directory count, nesting depth and the
// widest fan-out.
func Structure() activity.Descriptor {
	return activity.Descriptor{
		Name:        "structure",
		Description: "directory depth and fan-out summary of the target",
		Handle:      activity.HandleFunc(runStructure),
	}
}

func runStructure(ctx context.Context, target string, opts activity.Options) (activity.Result, error) {
	var (
		dirs     int
		maxDepth int
		fanOut   = map[string]int{}
		topLevel []string
	)

	err := filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		rel, err := filepath.Rel(target, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := d.Name()
		if d.IsDir() && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}

		depth := strings.Count(rel, string(filepath.Separator)) + 1
		if depth > maxDepth {
			maxDepth = depth
		}
		if depth == 1 {
			topLevel = append(topLevel, name)
		}
		fanOut[filepath.Dir(rel)]++
		if d.IsDir() {
			dirs++
		}
		return nil
	})
	if err != nil {
		return activity.Result{}, err
	}

	maxFanOut := 0
	for _, n := range fanOut {
		if n > maxFanOut {
			maxFanOut = n
		}
	}
	sort.Strings(topLevel)

	return activity.Result{
		Outcome: activity.OutcomeSuccess,
		Summary: map[string]any{
			"directories": dirs,
			"max_depth":   maxDepth,
			"max_fanout":  maxFanOut,
			"top_level":   topLevel,
		},
	}, nil
}
