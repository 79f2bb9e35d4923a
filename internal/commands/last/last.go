package last

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/thomas-vilte/changelens/internal/commands/completion_helper"
	"github.com/thomas-vilte/changelens/internal/config"
	domainErrors "github.com/thomas-vilte/changelens/internal/errors"
	"github.com/thomas-vilte/changelens/internal/i18n"
	"github.com/thomas-vilte/changelens/internal/sink"
	"github.com/thomas-vilte/changelens/internal/store"
	"github.com/thomas-vilte/changelens/internal/ui"
	"github.com/urfave/cli/v3"
)

type LastCommandFactory struct {
	store store.Store
}

// NewLastCommandFactory reads from st, or from the configured state
// directory when st is nil.
func NewLastCommandFactory(st store.Store) *LastCommandFactory {
	return &LastCommandFactory{store: st}
}

func (f *LastCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "last",
		Usage: t.GetMessage("last.usage", 0, nil),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: t.GetMessage("last.flag_json", 0, nil),
			},
		},
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action: func(ctx context.Context, command *cli.Command) error {
			w := completion_helper.Writer(command)

			st := f.store
			if st == nil {
				fs, err := store.NewFileStore(cfg.StateDir)
				if err != nil {
					return err
				}
				st = fs
			}

			record, err := sink.New(st).Last(ctx)
			if errors.Is(err, domainErrors.ErrNoLastResult) {
				if command.Bool("json") {
					_, _ = fmt.Fprintln(w, "null")
					return nil
				}
				ui.PrintInfo(w, t.GetMessage("last.none", 0, nil))
				return nil
			}
			if err != nil {
				return err
			}

			if command.Bool("json") {
				data, err := json.MarshalIndent(record, "", "  ")
				if err != nil {
					return domainErrors.NewAppError(domainErrors.TypeInternal, "could not encode classification", err)
				}
				_, err = fmt.Fprintln(w, string(data))
				return err
			}

			ui.PrintClassification(w, t, record)
			return nil
		},
	}
}
