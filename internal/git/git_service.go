package git

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/thomas-vilte/changelens/internal/errors"
	"github.com/thomas-vilte/changelens/internal/models"
)

// GitService shells out to the git CLI inside one working directory.
type GitService struct {
	dir string
}

// NewGitService runs git in dir; an empty dir means the process cwd.
func NewGitService(dir string) *GitService {
	return &GitService{dir: dir}
}

func (s *GitService) Dir() string {
	return s.dir
}

func (s *GitService) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", errors.NewAppError(errors.TypeGit, "git "+args[0]+" failed", err).
			WithContext("stderr", strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// HasStagedChanges checks if there are changes in the staging area
func (s *GitService) HasStagedChanges(ctx context.Context) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--cached", "--quiet")
	cmd.Dir = s.dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return false, nil
	}

	// exit status 1 means there is a difference
	if cmd.ProcessState != nil && cmd.ProcessState.ExitCode() == 1 {
		return true, nil
	}
	return false, errors.ErrGetDiff.WithError(err).
		WithContext("stderr", strings.TrimSpace(stderr.String()))
}

// GetDiff returns staged and unstaged changes of tracked files.
func (s *GitService) GetDiff(ctx context.Context) (string, error) {
	staged, err := s.run(ctx, "diff", "--cached", "--no-color", "--no-ext-diff")
	if err != nil {
		return "", errors.ErrGetDiff.WithError(err)
	}

	unstaged, err := s.run(ctx, "diff", "--no-color", "--no-ext-diff")
	if err != nil {
		return "", errors.ErrGetDiff.WithError(err)
	}

	return staged + unstaged, nil
}

func (s *GitService) GetStagedDiff(ctx context.Context) (string, error) {
	staged, err := s.run(ctx, "diff", "--cached", "--no-color", "--no-ext-diff")
	if err != nil {
		return "", errors.ErrGetDiff.WithError(err)
	}
	return staged, nil
}

// GetChangedFiles lists paths reported by git status, untracked included.
func (s *GitService) GetChangedFiles(ctx context.Context) ([]string, error) {
	output, err := s.run(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}

	changes := make([]string, 0)
	for _, line := range strings.Split(output, "\n") {
		if len(line) <= 3 {
			continue
		}
		path := strings.TrimSpace(line[3:])
		if idx := strings.Index(path, " -> "); idx >= 0 {
			path = path[idx+4:]
		}
		if path != "" {
			changes = append(changes, path)
		}
	}
	return changes, nil
}

func (s *GitService) GetCurrentBranch(ctx context.Context) (string, error) {
	output, err := s.run(ctx, "branch", "--show-current")
	if err != nil {
		return "", errors.ErrGetBranch.WithError(err)
	}
	return strings.TrimSpace(output), nil
}

// GetRepoRoot returns the absolute path of the repository root.
func (s *GitService) GetRepoRoot(ctx context.Context) (string, error) {
	output, err := s.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", errors.ErrNotInGitRepo.WithError(err)
	}
	return strings.TrimSpace(output), nil
}

// Snapshot returns the change text for scope together with the context
// classifiers get. Branch and file lookups are best effort.
func (s *GitService) Snapshot(ctx context.Context, scope models.Scope) (string, models.ClassificationContext, error) {
	var (
		text string
		err  error
	)
	switch scope {
	case models.ScopeStaged:
		var staged bool
		if staged, err = s.HasStagedChanges(ctx); err == nil && staged {
			text, err = s.GetStagedDiff(ctx)
		}
	case models.ScopeDiff:
		text, err = s.GetDiff(ctx)
	default:
		return "", models.ClassificationContext{}, errors.ErrInvalidConfig.WithContext("scope", string(scope))
	}
	if err != nil {
		return "", models.ClassificationContext{}, err
	}

	cc := models.ClassificationContext{Scope: scope}
	if root, err := s.GetRepoRoot(ctx); err == nil {
		cc.Project = filepath.Base(root)
	}
	if branch, err := s.GetCurrentBranch(ctx); err == nil {
		cc.Branch = branch
	}
	if files, err := s.GetChangedFiles(ctx); err == nil {
		cc.Files = files
	}
	return text, cc, nil
}
