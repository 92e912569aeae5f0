// Package git shells out to the git binary. Exit code and stderr are the
// whole contract; no plumbing is reimplemented here.
package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

type Client struct {
	logger *slog.Logger
}

func NewClient(logger *slog.Logger) *Client {
	return &Client{logger: logger}
}

// Clone runs `git clone url name` inside parentDir and returns the path of
// the new working copy.
func (c *Client) Clone(ctx context.Context, url, parentDir, name string) (string, error) {
	c.logger.Info("cloning repo", "url", url, "into", parentDir)
	if err := c.run(ctx, parentDir, "clone", url, name); err != nil {
		return "", err
	}
	return filepath.Join(parentDir, name), nil
}

// Init creates an empty repository in dir.
func (c *Client) Init(ctx context.Context, dir string) error {
	return c.run(ctx, dir, "init")
}

// CurrentBranch returns the checked-out branch name for dir.
func (c *Client) CurrentBranch(ctx context.Context, dir string) (string, error) {
	out, err := c.output(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Checkout switches dir to branch, creating a local tracking branch from
// origin when the branch only exists remotely.
func (c *Client) Checkout(ctx context.Context, dir, branch string) error {
	c.logger.Info("checking out branch", "dir", dir, "branch", branch)
	if err := c.run(ctx, dir, "checkout", branch); err == nil {
		return nil
	}
	if err := c.run(ctx, dir, "fetch", "origin", branch); err != nil {
		return err
	}
	return c.run(ctx, dir, "checkout", "-B", branch, "origin/"+branch)
}

func (c *Client) run(ctx context.Context, dir string, args ...string) error {
	_, err := c.output(ctx, dir, args...)
	return err
}

func (c *Client) output(ctx context.Context, dir string, args ...string) (string, error) {
	c.logger.Debug("exec", "cmd", "git "+strings.Join(args, " "), "dir", dir)

	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	// Interrupt instead of kill on cancellation so an in-flight clone can
	// finish the object it is writing and exit cleanly.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = 10 * time.Second

	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w\n%s", strings.Join(args, " "), err, string(out))
	}
	return string(out), nil
}
