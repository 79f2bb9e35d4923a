package engine

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	domainErrors "github.com/thomas-vilte/changelens/internal/errors"
	"github.com/thomas-vilte/changelens/internal/git"
	"github.com/thomas-vilte/changelens/internal/models"
	"github.com/thomas-vilte/changelens/internal/scheduler"
)

// GitSource reads the working copy or staged diff on every fetch.
func GitSource(svc *git.GitService, scope models.Scope) scheduler.ChangeSource {
	return scheduler.SourceFunc(func(ctx context.Context) (scheduler.Change, error) {
		text, cc, err := svc.Snapshot(ctx, scope)
		if err != nil {
			return scheduler.Change{}, err
		}
		return scheduler.Change{Text: text, Context: cc}, nil
	})
}

// HunkFileSource re-reads path on every fetch, so an editor can rewrite it
// between cycles.
func HunkFileSource(path string) scheduler.ChangeSource {
	cc := models.ClassificationContext{
		Scope: models.ScopeHunk,
		Files: []string{filepath.Base(path)},
	}
	return scheduler.SourceFunc(func(_ context.Context) (scheduler.Change, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return scheduler.Change{}, domainErrors.ErrReadHunk.WithError(err).WithContext("path", path)
		}
		return scheduler.Change{Text: string(data), Context: cc}, nil
	})
}

// HunkReaderSource reads r once, on the first fetch, and serves the same
// text afterwards. Used for stdin.
func HunkReaderSource(r io.Reader) scheduler.ChangeSource {
	var (
		once sync.Once
		text string
		err  error
	)
	return scheduler.SourceFunc(func(_ context.Context) (scheduler.Change, error) {
		once.Do(func() {
			var data []byte
			data, err = io.ReadAll(r)
			if err != nil {
				err = domainErrors.ErrReadHunk.WithError(err)
				return
			}
			text = string(data)
		})
		if err != nil {
			return scheduler.Change{}, err
		}
		return scheduler.Change{Text: text, Context: models.ClassificationContext{Scope: models.ScopeHunk}}, nil
	})
}
