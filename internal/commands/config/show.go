package config

import (
	"context"
	"strings"

	"github.com/thomas-vilte/changelens/internal/commands/completion_helper"
	"github.com/thomas-vilte/changelens/internal/config"
	"github.com/thomas-vilte/changelens/internal/i18n"
	"github.com/thomas-vilte/changelens/internal/ui"
	"github.com/urfave/cli/v3"
)

func (c *ConfigCommandFactory) newShowCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: t.GetMessage("config.show_usage", 0, nil),
		Action: func(ctx context.Context, command *cli.Command) error {
			w := completion_helper.Writer(command)
			ui.PrintSectionBanner(w, t.GetMessage("config.title", 0, nil))

			keyStatus := t.GetMessage("config.api_key_missing", 0, nil)
			if cfg.GeminiAPIKey() != "" {
				keyStatus = t.GetMessage("config.api_key_set", 0, nil)
			}

			cl := cfg.Classification
			timeout := cl.ClassifierTimeout().String()
			if cl.ClassifierTimeout() == 0 {
				timeout = "-"
			}

			precedence := strings.Join(cl.Categories, ", ")
			if len(cl.Precedence) > 0 {
				precedence = strings.Join(cl.Precedence, ", ")
			}

			rows := []struct{ key, value string }{
				{"config.path", cfg.PathFile},
				{"config.language", cfg.Language},
				{"config.api_key", keyStatus},
				{"config.model", string(cfg.AIConfig.ActiveAI) + ": " + string(cfg.ActiveModel())},
				{"config.scope", cl.Scope},
				{"config.interval", cl.Interval().String()},
				{"config.debounce", cl.Debounce().String()},
				{"config.timeout", timeout},
				{"config.categories", strings.Join(cl.Categories, ", ")},
				{"config.precedence", precedence},
				{"config.state_dir", cfg.StateDir},
			}
			for _, row := range rows {
				ui.PrintKeyValue(w, t.GetMessage(row.key, 0, nil), row.value)
			}
			return nil
		},
	}
}
