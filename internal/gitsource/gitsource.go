// Package gitsource fetches a remote repository into a temporary working
// tree so the pipeline can document sources it does not have locally.
package gitsource

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

// Clone shallow-clones url into a fresh temp directory and returns its path
// plus a cleanup func that removes it.
func Clone(ctx context.Context, url string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "docpipe-src-")
	if err != nil {
		return "", nil, fmt.Errorf("creating clone dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", url, dir)
	out, err := cmd.CombinedOutput()
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("git clone %s failed: %s: %w", url, strings.TrimSpace(string(out)), err)
	}
	return dir, cleanup, nil
}

var githubURLRe = regexp.MustCompile(`^(?:https://github\.com/|git@github\.com:)([^/]+)/([^/]+?)(?:\.git)?/?$`)

// ParseGitHubRepo extracts owner and repo from an HTTPS or SSH GitHub URL.
func ParseGitHubRepo(url string) (owner, repo string, ok bool) {
	m := githubURLRe.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
