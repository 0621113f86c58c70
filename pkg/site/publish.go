package site

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
)

// Publisher pushes a built site to a dedicated branch through a git
// worktree.
type Publisher struct {
	// RepoDir is the repository root.
	RepoDir string

	// Branch receives the built site, e.g. "gh-pages". It must exist.
	Branch string

	// DryRun skips the final commit and push.
	DryRun bool

	// DevMode skips the repository state checks so a publish can be
	// rehearsed from a dirty tree or a feature branch. Like DryRun,
	// nothing is committed or pushed.
	DevMode bool
}

// git runs a git command in dir and returns its trimmed output.
func (p *Publisher) git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeGitState, err,
			"git %s failed: %s", strings.Join(args, " "), strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// CheckState verifies the repository is publishable: on the main branch,
// clean, in sync with its remote, with the publish branch existing. It
// returns the commit message for the publish commit.
func (p *Publisher) CheckState(ctx context.Context) (subject, body string, err error) {
	branch, err := p.git(ctx, p.RepoDir, "branch", "--show-current")
	if err != nil {
		return "", "", err
	}
	if branch != "main" {
		return "", "", errors.New(errors.ErrCodeGitState, "current branch is %q, expected main", branch)
	}

	if _, err := p.git(ctx, p.RepoDir, "rev-parse", "--verify", p.Branch); err != nil {
		return "", "", errors.New(errors.ErrCodeGitState, "branch %q doesn't exist, create it first", p.Branch)
	}

	status, err := p.git(ctx, p.RepoDir, "status", "--porcelain")
	if err != nil {
		return "", "", err
	}
	if status != "" {
		return "", "", errors.New(errors.ErrCodeGitState, "uncommitted changes found:\n%s", status)
	}

	remote, err := p.git(ctx, p.RepoDir, "status", "--short", "--branch", "--porcelain")
	if err != nil {
		return "", "", err
	}
	if regexp.MustCompile(`## ` + regexp.QuoteMeta(branch) + `.+\[ahead`).MatchString(remote) {
		return "", "", errors.New(errors.ErrCodeGitState, "current branch is ahead of its remote, push first")
	}
	if regexp.MustCompile(`## ` + regexp.QuoteMeta(branch) + `.+\[behind`).MatchString(remote) {
		return "", "", errors.New(errors.ErrCodeGitState, "current branch is behind its remote, pull first")
	}

	commit, err := p.git(ctx, p.RepoDir, "rev-parse", "HEAD")
	if err != nil {
		return "", "", err
	}
	return "chore(doc): automatic build to " + p.Branch,
		fmt.Sprintf("from commit %s on branch %s", commit, branch),
		nil
}

// Publish runs build inside a worktree of the publish branch, commits the
// result and pushes it. The worktree directory is removed afterwards even
// on failure.
func (p *Publisher) Publish(ctx context.Context, worktreeDir string, build func(buildDir string) error) (err error) {
	var subject, body string
	if !p.DevMode {
		subject, body, err = p.CheckState(ctx)
		if err != nil {
			return err
		}
	}

	if _, err := p.git(ctx, p.RepoDir, "worktree", "add", worktreeDir, p.Branch); err != nil {
		return err
	}
	defer func() {
		// `git worktree remove` is unreliable with generated content in
		// place, clean up manually instead
		os.RemoveAll(worktreeDir)
		if _, pruneErr := p.git(ctx, p.RepoDir, "worktree", "prune"); err == nil {
			err = pruneErr
		}
	}()

	// clean the branch content so removed pages don't linger
	if _, err := p.git(ctx, worktreeDir, "rm", "--quiet", "--ignore-unmatch", "-r", "*"); err != nil {
		return err
	}

	if err := build(worktreeDir); err != nil {
		return err
	}

	if _, err := p.git(ctx, worktreeDir, "add", "--all"); err != nil {
		return err
	}
	changes, err := p.git(ctx, worktreeDir, "status", "--porcelain")
	if err != nil {
		return err
	}
	if changes == "" || p.DryRun || p.DevMode {
		return nil
	}

	if _, err := p.git(ctx, worktreeDir, "commit", "-m", subject, "-m", body); err != nil {
		return err
	}
	_, err = p.git(ctx, worktreeDir, "push", "origin", p.Branch)
	return err
}

// WorktreeDir returns a directory for the publish worktree next to the
// repository, trackable by git.
func (p *Publisher) WorktreeDir() string {
	return filepath.Join(p.RepoDir, ".site.publish")
}
