package builtin

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/optqo/optqo/activity"
)

// languageByExt maps file extensions to the language recorded in the
// census. Unlisted extensions are counted under "other".
var languageByExt = map[string]string{
	".go":   "Go",
	".py":   "Python",
	".js":   "JavaScript",
	".ts":   "TypeScript",
	".java": "Java",
	".c":    "C",
	".h":    "C",
	".cpp":  "C++",
	".cc":   "C++",
	".rs":   "Rust",
	".rb":   "Ruby",
	".sas":  "SAS",
	".sql":  "SQL",
	".sh":   "Shell",
	".md":   "Markdown",
	".yaml": "YAML",
	".yml":  "YAML",
	".json": "JSON",
}

// Discover returns the file-census activity. It walks the target and
// summarizes file counts, total size and language distribution. At
// shallow depth only the top level of the target is examined.
func Discover() activity.Descriptor {
	return activity.Descriptor{
		Name:        "discover",
		Description: "census of files, sizes and languages in the target",
		Handle:      activity.HandleFunc(runDiscover),
	}
}

func runDiscover(ctx context.Context, target string, opts activity.Options) (activity.Result, error) {
	var (
		files     int
		bytes     int64
		languages = map[string]int{}
	)

	err := walkTarget(ctx, target, opts.Depth, func(path string, info fs.FileInfo) {
		files++
		bytes += info.Size()
		lang, ok := languageByExt[strings.ToLower(filepath.Ext(path))]
		if !ok {
			lang = "other"
		}
		languages[lang]++
	})
	if err != nil {
		return activity.Result{}, err
	}

	return activity.Result{
		Outcome: activity.OutcomeSuccess,
		Summary: map[string]any{
			"files_seen":  files,
			"bytes_total": bytes,
			"languages":   languages,
		},
	}, nil
}

// walkTarget visits every regular file under target, calling fn for
// each. Hidden directories and .git are not descended into. When depth
// is shallow only the top level is visited. A target naming a single
// file yields exactly one visit.
func walkTarget(ctx context.Context, target, depth string, fn func(path string, info fs.FileInfo)) error {
	return filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			if path == target {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if depth == "shallow" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		fn(path, info)
		return nil
	})
}
