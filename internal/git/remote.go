// Package git resolves repository identity from a local checkout.
package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Client interacts with Git repositories
type Client struct{}

// NewClient creates a new Git client
func NewClient() *Client {
	return &Client{}
}

// OriginURL returns the fetch URL of the origin remote for the checkout at dir
func (c *Client) OriginURL(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "remote", "get-url", "origin")
	cmd.Dir = dir

	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git remote get-url failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// RepoIdentifier returns the owner/name identifier of the origin remote
func (c *Client) RepoIdentifier(ctx context.Context, dir string) (string, error) {
	url, err := c.OriginURL(ctx, dir)
	if err != nil {
		return "", err
	}
	id := ParseRemote(url)
	if id == "" {
		return "", fmt.Errorf("unrecognized remote url %q", url)
	}
	return id, nil
}

// ParseRemote extracts owner/name from an ssh or https remote URL.
// It returns "" when the URL has fewer than two path segments.
func ParseRemote(url string) string {
	url = strings.TrimSpace(url)
	url = strings.TrimSuffix(url, "/")
	url = strings.TrimSuffix(url, ".git")

	if i := strings.Index(url, "://"); i != -1 {
		url = url[i+3:]
		if slash := strings.IndexByte(url, '/'); slash != -1 {
			url = url[slash+1:]
		} else {
			return ""
		}
	} else if colon := strings.IndexByte(url, ':'); colon != -1 {
		// scp-like syntax: git@host:owner/name
		url = url[colon+1:]
	} else {
		return ""
	}

	parts := strings.Split(strings.Trim(url, "/"), "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return ""
	}
	return parts[len(parts)-2] + "/" + parts[len(parts)-1]
}
