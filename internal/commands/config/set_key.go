package config

import (
	"context"
	"strings"

	"github.com/thomas-vilte/changelens/internal/commands/completion_helper"
	"github.com/thomas-vilte/changelens/internal/config"
	domainErrors "github.com/thomas-vilte/changelens/internal/errors"
	"github.com/thomas-vilte/changelens/internal/i18n"
	"github.com/thomas-vilte/changelens/internal/ui"
	"github.com/urfave/cli/v3"
)

const minAPIKeyLength = 10

func (c *ConfigCommandFactory) newSetKeyCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "set-key",
		Usage:     t.GetMessage("config.set_key_usage", 0, nil),
		ArgsUsage: t.GetMessage("config.set_key_args_usage", 0, nil),
		Action: func(ctx context.Context, command *cli.Command) error {
			w := completion_helper.Writer(command)
			if command.Args().Len() < 1 {
				ui.PrintError(w, t.GetMessage("config.missing_args", 0, nil))
				return domainErrors.ErrAPIKeyMissing
			}

			apiKey := strings.TrimSpace(command.Args().Get(0))
			if len(apiKey) < minAPIKeyLength {
				return domainErrors.ErrGeminiAPIKeyInvalid
			}

			if cfg.AIProviders == nil {
				cfg.AIProviders = make(map[string]config.AIProviderConfig)
			}
			cfg.AIProviders[string(config.AIGemini)] = config.AIProviderConfig{APIKey: apiKey}

			if err := config.SaveConfig(cfg); err != nil {
				return domainErrors.ErrInvalidConfig.WithError(err)
			}

			ui.PrintSuccess(w, t.GetMessage("config.saved", 0, nil))
			return nil
		},
	}
}
