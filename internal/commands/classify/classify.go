package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/thomas-vilte/changelens/internal/commands/completion_helper"
	"github.com/thomas-vilte/changelens/internal/config"
	"github.com/thomas-vilte/changelens/internal/engine"
	domainErrors "github.com/thomas-vilte/changelens/internal/errors"
	"github.com/thomas-vilte/changelens/internal/git"
	"github.com/thomas-vilte/changelens/internal/i18n"
	"github.com/thomas-vilte/changelens/internal/models"
	"github.com/thomas-vilte/changelens/internal/scheduler"
	"github.com/thomas-vilte/changelens/internal/sink"
	"github.com/thomas-vilte/changelens/internal/ui"
	"github.com/urfave/cli/v3"
)

type ClassifyCommandFactory struct {
	base engine.Options
}

// NewClassifyCommandFactory takes the engine options every run starts from;
// the zero value uses Gemini and the state directory.
func NewClassifyCommandFactory(base engine.Options) *ClassifyCommandFactory {
	return &ClassifyCommandFactory{base: base}
}

func (f *ClassifyCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "classify",
		Usage: t.GetMessage("classify.usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "scope",
				Aliases: []string{"s"},
				Usage:   t.GetMessage("classify.flag_scope", 0, nil),
			},
			&cli.StringFlag{
				Name:  "hunk-file",
				Usage: t.GetMessage("classify.flag_hunk_file", 0, nil),
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Value:   ".",
				Usage:   t.GetMessage("classify.flag_dir", 0, nil),
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   t.GetMessage("classify.flag_force", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: t.GetMessage("classify.flag_json", 0, nil),
			},
		},
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action:        f.classifyAction(t, cfg),
	}
}

func (f *ClassifyCommandFactory) classifyAction(t *i18n.Translations, cfg *config.Config) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		w := completion_helper.Writer(command)
		asJSON := command.Bool("json")

		opts := f.base
		opts.Dir = command.String("dir")
		opts.Scope = models.Scope(command.String("scope"))
		if opts.Scope == "" {
			opts.Scope = cfg.Classification.ScopeValue()
		}

		switch hunkFile := command.String("hunk-file"); {
		case hunkFile == "-":
			opts.Scope = models.ScopeHunk
			opts.Source = engine.HunkReaderSource(completion_helper.Reader(command))
		case hunkFile != "":
			opts.Scope = models.ScopeHunk
			opts.Source = engine.HunkFileSource(hunkFile)
		case opts.Source == nil && opts.Scope != models.ScopeHunk:
			opts.Source = engine.GitSource(git.NewGitService(opts.Dir), opts.Scope)
		}

		var (
			mu        sync.Mutex
			published *models.StoredClassification
			files     []string
		)
		opts.Subscribers = append(append([]sink.Subscriber{}, opts.Subscribers...),
			func(_ context.Context, record models.StoredClassification) {
				mu.Lock()
				defer mu.Unlock()
				published = &record
			})
		if opts.Source != nil {
			opts.Source = captureFiles(opts.Source, &mu, &files)
		}

		eng, err := engine.New(ctx, cfg, opts)
		if err != nil {
			return err
		}

		if !command.Bool("force") {
			if _, err := eng.SeedFromLast(ctx); err != nil {
				return err
			}
		}

		var spin *ui.SmartSpinner
		if !asJSON {
			spin = ui.NewSmartSpinner(w, t.GetMessage("classify.analyzing", 0, nil))
			spin.Start()
		}

		eng.Scheduler.RequestNow()
		eng.Scheduler.Wait()

		outcome := eng.Scheduler.LastOutcome()
		if spin != nil {
			spin.Stop()
		}

		switch outcome {
		case scheduler.OutcomePublished:
			mu.Lock()
			record := *published
			mu.Unlock()
			if asJSON {
				return printJSON(command, record)
			}
			ui.PrintSuccess(w, t.GetMessage("classify.done", 0, nil))
			ui.PrintClassification(w, t, record)
			ui.PrintFilesChanged(w, t, files)
			return nil

		case scheduler.OutcomeSkippedDuplicate:
			last, err := eng.Sink.Last(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(command, last)
			}
			ui.PrintInfo(w, t.GetMessage("classify.unchanged", 0, nil))
			ui.PrintClassification(w, t, last)
			return nil

		case scheduler.OutcomeSkippedEmpty:
			if asJSON {
				_, _ = fmt.Fprintln(w, "null")
				return nil
			}
			ui.PrintWarning(w, t.GetMessage("classify.no_changes", 0, nil))
			return nil

		default:
			if !asJSON {
				ui.PrintError(w, t.GetMessage("classify.failed", 0, nil))
			}
			return domainErrors.ErrAllClassifiersFailed
		}
	}
}

// captureFiles records the file list of the last fetched change.
func captureFiles(src scheduler.ChangeSource, mu *sync.Mutex, files *[]string) scheduler.ChangeSource {
	return scheduler.SourceFunc(func(ctx context.Context) (scheduler.Change, error) {
		change, err := src.Fetch(ctx)
		if err == nil {
			mu.Lock()
			*files = change.Context.Files
			mu.Unlock()
		}
		return change, err
	})
}

func printJSON(command *cli.Command, record models.StoredClassification) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return domainErrors.NewAppError(domainErrors.TypeInternal, "could not encode classification", err)
	}
	_, err = fmt.Fprintln(completion_helper.Writer(command), string(data))
	return err
}
