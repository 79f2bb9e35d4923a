package main

import (
	"context"
	"fmt"
	"os"

	"github.com/thomas-vilte/changelens/internal/cli/registry"
	"github.com/thomas-vilte/changelens/internal/commands/classify"
	configcmd "github.com/thomas-vilte/changelens/internal/commands/config"
	"github.com/thomas-vilte/changelens/internal/commands/last"
	"github.com/thomas-vilte/changelens/internal/commands/watch"
	cfg "github.com/thomas-vilte/changelens/internal/config"
	"github.com/thomas-vilte/changelens/internal/engine"
	"github.com/thomas-vilte/changelens/internal/i18n"
	"github.com/thomas-vilte/changelens/internal/logger"
	"github.com/thomas-vilte/changelens/internal/ui"
	"github.com/thomas-vilte/changelens/internal/version"
	"github.com/urfave/cli/v3"
)

func main() {
	logger.Initialize(false, false)

	app, translations, err := initializeApp()
	if err != nil {
		ui.HandleAppError(os.Stderr, err)
		os.Exit(1)
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		ui.HandleAppError(os.Stderr, err, translations)
		os.Exit(1)
	}
}

func initializeApp() (*cli.Command, *i18n.Translations, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, nil, fmt.Errorf("could not resolve the home directory: %w", err)
	}

	cfgApp, err := cfg.LoadConfig(homeDir)
	if err != nil {
		return nil, nil, err
	}

	translations, err := i18n.NewTranslations(cfgApp.Language, "")
	if err != nil {
		return nil, nil, fmt.Errorf("could not load translations: %w", err)
	}

	registerCommand := registry.NewRegistry(cfgApp, translations)

	factories := []struct {
		name    string
		factory registry.CommandFactory
	}{
		{"watch", watch.NewWatchCommandFactory(engine.Options{})},
		{"classify", classify.NewClassifyCommandFactory(engine.Options{})},
		{"last", last.NewLastCommandFactory(nil)},
		{"config", configcmd.NewConfigCommandFactory()},
	}
	for _, f := range factories {
		if err := registerCommand.Register(f.name, f.factory); err != nil {
			return nil, nil, err
		}
	}

	commands := registerCommand.CreateCommands()
	commands = append(commands, &cli.Command{
		Name:    "help",
		Aliases: []string{"h"},
		Usage:   translations.GetMessage("app.help_usage", 0, nil),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
	})

	return &cli.Command{
		Name:    "changelens",
		Usage:   translations.GetMessage("app.usage", 0, nil),
		Version: version.FullVersion(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: translations.GetMessage("app.flag_debug", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: translations.GetMessage("app.flag_verbose", 0, nil),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logger.Initialize(cmd.Bool("debug"), cmd.Bool("verbose"))
			return ctx, nil
		},
		Commands:              commands,
		EnableShellCompletion: true,
	}, translations, nil
}
