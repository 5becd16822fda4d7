package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// clone runs a shallow git clone of url into a fresh workspace
// subdirectory and returns the checkout path.
func (f *Fetcher) clone(ctx context.Context, url string) (string, error) {
	dest, err := f.destDir(repoName(url))
	if err != nil {
		return "", err
	}

	f.logger.Info("cloning repository", "url", url, "dest", dest)

	cmd := exec.CommandContext(ctx, f.git, "clone", "--depth", "1", url, dest)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf("%w: git clone %q: %s", ErrBadTarget, url, detail)
	}

	f.logger.Info("repository cloned", "url", url, "dest", dest)
	return dest, nil
}
