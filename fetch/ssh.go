package fetch

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// fetchSSH copies a remote directory named by an ssh://user@host[:port]/path
// spec into the workspace by streaming a tar archive over a single SSH
// session.
func (f *Fetcher) fetchSSH(ctx context.Context, spec string) (string, error) {
	u, err := url.Parse(spec)
	if err != nil || u.Host == "" || u.Path == "" || u.User == nil {
		return "", fmt.Errorf("%w: %q: expected ssh://user@host/path", ErrBadTarget, spec)
	}

	addr := u.Host
	if u.Port() == "" {
		addr += ":22"
	}

	client, err := f.dial(addr, u.User.Username())
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrBadTarget, spec, err)
	}
	defer client.Close()

	dest, err := f.destDir(repoName(u.Path))
	if err != nil {
		return "", err
	}

	f.logger.Info("fetching remote directory", "host", u.Host, "path", u.Path, "dest", dest)

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("%w: creating SSH session: %v", ErrBadTarget, err)
	}
	defer session.Close()

	stdout, err := session.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("%w: attaching to SSH session: %v", ErrBadTarget, err)
	}

	cmd := fmt.Sprintf("tar -C %s -cf - .", shellQuote(u.Path))
	if err := session.Start(cmd); err != nil {
		return "", fmt.Errorf("%w: starting remote tar: %v", ErrBadTarget, err)
	}

	if err := untar(ctx, stdout, dest); err != nil {
		return "", fmt.Errorf("%w: unpacking %q: %v", ErrBadTarget, spec, err)
	}

	if err := session.Wait(); err != nil {
		return "", fmt.Errorf("%w: remote tar failed for %q: %v", ErrBadTarget, spec, err)
	}

	f.logger.Info("remote directory fetched", "dest", dest)
	return dest, nil
}

func (f *Fetcher) dial(addr, user string) (*ssh.Client, error) {
	if f.sshKey == "" {
		return nil, fmt.Errorf("no SSH key configured")
	}
	keyPEM, err := os.ReadFile(f.sshKey)
	if err != nil {
		return nil, fmt.Errorf("reading SSH key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(keyPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing SSH key: %w", err)
	}

	config := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // NOTE: for production, use a proper callback
	}
	return ssh.Dial("tcp", addr, config)
}

// untar unpacks a tar stream into dest, rejecting entries that would
// escape it.
func untar(ctx context.Context, r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		name := filepath.Clean(hdr.Name)
		if name == "." {
			continue
		}
		if strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
			return fmt.Errorf("archive entry escapes destination: %q", hdr.Name)
		}
		path := filepath.Join(dest, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(path, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return err
			}
			file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode)&0777)
			if err != nil {
				return err
			}
			if _, err := io.Copy(file, tr); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
		default:
			// Symlinks and special files are skipped; analysis targets
			// only need regular files.
		}
	}
}

// shellQuote wraps path for the remote shell.
func shellQuote(path string) string {
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}
