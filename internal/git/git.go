package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Change statuses as reported by git diff --name-status.
const (
	StatusAdded    = "A"
	StatusModified = "M"
	StatusDeleted  = "D"
)

type ChangedFile struct {
	Path   string
	Status string
}

// Deleted reports whether the file no longer exists after the change.
func (c ChangedFile) Deleted() bool {
	return c.Status == StatusDeleted
}

// ChangedFiles runs git diff in dir and returns the files that differ from
// baseRef, including uncommitted changes. Paths are absolute.
func ChangedFiles(ctx context.Context, dir, baseRef string) ([]ChangedFile, error) {
	top, err := run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, err
	}
	output, err := run(ctx, dir, "diff", "--name-status", "-M", baseRef)
	if err != nil {
		return nil, err
	}

	changes, err := parseNameStatus([]byte(output))
	if err != nil {
		return nil, err
	}
	for i := range changes {
		changes[i].Path = filepath.Join(top, filepath.FromSlash(changes[i].Path))
	}
	return changes, nil
}

// Head returns the commit currently checked out in dir.
func Head(ctx context.Context, dir string) (string, error) {
	return run(ctx, dir, "rev-parse", "HEAD")
}

func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(string(output)), nil
}

// parseNameStatus reads lines such as "M\tpath" or "R100\told\tnew". A
// rename or copy is reported as a deletion of the old path (renames only)
// and an addition of the new one.
func parseNameStatus(output []byte) ([]ChangedFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	var changes []ChangedFile

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("unexpected diff line %q", line)
		}

		status := fields[0][:1]
		switch status {
		case "R", "C":
			if len(fields) < 3 {
				return nil, fmt.Errorf("unexpected diff line %q", line)
			}
			if status == "R" {
				changes = append(changes, ChangedFile{Path: fields[1], Status: StatusDeleted})
			}
			changes = append(changes, ChangedFile{Path: fields[2], Status: StatusAdded})
		case StatusAdded, StatusDeleted:
			changes = append(changes, ChangedFile{Path: fields[1], Status: status})
		default:
			// M, T and anything unknown are treated as in-place edits.
			changes = append(changes, ChangedFile{Path: fields[1], Status: StatusModified})
		}
	}

	return changes, scanner.Err()
}
