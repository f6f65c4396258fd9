// Package diff finds the lines of a file that changed since a recorded
// commit, using git and a unified-diff parser.
package diff

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// FileChange is the line-level change of one file in a diff.
type FileChange struct {
	OldName   string
	NewName   string
	IsNew     bool
	IsDeleted bool
	// Added holds 0-based line numbers in the new version of the file.
	Added []int
	// Deleted holds 0-based line numbers in the old version of the file.
	Deleted []int
}

// Name returns the path of the file after the change, or before it for a
// deletion.
func (f *FileChange) Name() string {
	if f.IsDeleted || f.NewName == "" {
		return f.OldName
	}
	return f.NewName
}

// Parse reads a unified diff and returns the change of each text file.
func Parse(raw string) ([]*FileChange, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	var out []*FileChange
	for _, f := range files {
		if f.IsBinary {
			continue
		}
		fc := &FileChange{
			OldName:   f.OldName,
			NewName:   f.NewName,
			IsNew:     f.IsNew,
			IsDeleted: f.IsDelete,
		}
		for _, frag := range f.TextFragments {
			oldLine := int(frag.OldPosition) - 1
			newLine := int(frag.NewPosition) - 1
			// A zero-length side is positioned on the line before the hunk.
			if frag.OldLines == 0 {
				oldLine++
			}
			if frag.NewLines == 0 {
				newLine++
			}
			for _, line := range frag.Lines {
				switch line.Op {
				case gitdiff.OpAdd:
					fc.Added = append(fc.Added, newLine)
					newLine++
				case gitdiff.OpDelete:
					fc.Deleted = append(fc.Deleted, oldLine)
					oldLine++
				default:
					oldLine++
					newLine++
				}
			}
		}
		sort.Ints(fc.Added)
		out = append(out, fc)
	}
	return out, nil
}

// Repo runs git in a working tree.
type Repo struct {
	Dir string
}

// NewRepo returns a Repo rooted at dir.
func NewRepo(dir string) *Repo {
	return &Repo{Dir: dir}
}

func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

// Head returns the commit checked out in the working tree.
func (r *Repo) Head(ctx context.Context) (string, error) {
	out, err := r.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// AddedLines returns the 0-based lines of fileName added in the working tree
// since commit. An empty commit means nothing is known yet, so no lines are
// reported.
func (r *Repo) AddedLines(ctx context.Context, commit, fileName string) ([]int, error) {
	if commit == "" {
		return nil, nil
	}
	raw, err := r.git(ctx, "diff", "--no-color", "-U0", commit, "--", fileName)
	if err != nil {
		return nil, err
	}
	changes, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	for _, fc := range changes {
		if fc.Name() == fileName {
			return fc.Added, nil
		}
	}
	return nil, nil
}
