// Package fetch acquires pipeline targets.
//
// A target spec is resolved to a local path before any pipeline step
// runs: local paths are verified and used as-is, git URLs are cloned
// into the workspace, and ssh:// specs are copied from the remote host.
// Acquisition failures short-circuit the whole run, so no activity ever
// sees a half-acquired target.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrBadTarget is returned when a target spec cannot be resolved to a
// local path.
var ErrBadTarget = errors.New("cannot resolve target")

// Fetcher resolves target specs into local paths under a workspace
// directory.
type Fetcher struct {
	workspace string
	logger    *slog.Logger
	git       string
	sshKey    string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger.With("component", "fetch")
	}
}

// WithGitBinary overrides the git executable name or path.
func WithGitBinary(path string) Option {
	return func(f *Fetcher) {
		f.git = path
	}
}

// WithSSHKey sets the path of the private key used for ssh:// targets.
func WithSSHKey(path string) Option {
	return func(f *Fetcher) {
		f.sshKey = path
	}
}

// New creates a Fetcher that stores acquired targets under workspace.
func New(workspace string, opts ...Option) *Fetcher {
	f := &Fetcher{
		workspace: workspace,
		logger:    slog.Default().With("component", "fetch"),
		git:       "git",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Resolve turns a target spec into a local directory path.
//
// Specs are classified by shape: "ssh://user@host/path" fetches over
// SSH, git URLs (http(s) ending in .git, or scp-like "git@host:repo")
// are cloned, anything else is treated as a local path that must exist.
func (f *Fetcher) Resolve(ctx context.Context, spec string) (string, error) {
	switch {
	case strings.HasPrefix(spec, "ssh://"):
		return f.fetchSSH(ctx, spec)
	case isGitURL(spec):
		return f.clone(ctx, spec)
	default:
		return f.local(spec)
	}
}

func (f *Fetcher) local(spec string) (string, error) {
	// Single-file targets are allowed; activities walk files and a
	// one-file walk is a valid census.
	if _, err := os.Stat(spec); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrBadTarget, spec, err)
	}
	return spec, nil
}

// isGitURL reports whether spec names a remote git repository.
func isGitURL(spec string) bool {
	if strings.HasPrefix(spec, "git@") && strings.Contains(spec, ":") {
		return true
	}
	if strings.HasPrefix(spec, "http://") || strings.HasPrefix(spec, "https://") {
		return strings.HasSuffix(spec, ".git")
	}
	return false
}

// destDir builds a fresh workspace subdirectory for an acquisition.
func (f *Fetcher) destDir(name string) (string, error) {
	if err := os.MkdirAll(f.workspace, 0755); err != nil {
		return "", fmt.Errorf("creating workspace: %w", err)
	}
	stamp := time.Now().Format("20060102_150405")
	return filepath.Join(f.workspace, fmt.Sprintf("%s_%s", name, stamp)), nil
}

// repoName extracts a directory-safe name from a repository spec.
func repoName(spec string) string {
	name := spec
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".git")
	if name == "" {
		name = "target"
	}
	return name
}
