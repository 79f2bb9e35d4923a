package config

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/thomas-vilte/changelens/internal/commands/completion_helper"
	"github.com/thomas-vilte/changelens/internal/config"
	domainErrors "github.com/thomas-vilte/changelens/internal/errors"
	"github.com/thomas-vilte/changelens/internal/i18n"
	"github.com/thomas-vilte/changelens/internal/models"
	"github.com/thomas-vilte/changelens/internal/ui"
	"github.com/urfave/cli/v3"
)

func (c *ConfigCommandFactory) newSetCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     t.GetMessage("config.set_usage", 0, nil),
		ArgsUsage: t.GetMessage("config.set_args_usage", 0, nil),
		Action: func(ctx context.Context, command *cli.Command) error {
			w := completion_helper.Writer(command)
			if command.Args().Len() < 2 {
				ui.PrintError(w, t.GetMessage("config.missing_args", 0, nil))
				return domainErrors.ErrInvalidConfig.WithContext("args", command.Args().Len())
			}

			key := strings.ToLower(command.Args().Get(0))
			value := command.Args().Get(1)

			invalid := func() error {
				msg := t.GetMessage("config.invalid_value", 0, map[string]interface{}{"Key": key, "Value": value})
				ui.PrintError(w, msg)
				return domainErrors.ErrInvalidConfig.WithContext(key, value)
			}

			cl := &cfg.Classification
			switch key {
			case "lang", "language":
				if !slices.Contains(t.Languages(), value) {
					return invalid()
				}
				cfg.Language = value
			case "model":
				model := config.Model(value)
				if !slices.Contains(config.ModelsForAI(cfg.AIConfig.ActiveAI), model) {
					return invalid()
				}
				if cfg.AIConfig.Models == nil {
					cfg.AIConfig.Models = make(map[config.AI]config.Model)
				}
				cfg.AIConfig.Models[cfg.AIConfig.ActiveAI] = model
			case "interval":
				secs, ok := parseSeconds(value)
				if !ok || secs <= 0 {
					return invalid()
				}
				cl.IntervalSeconds = secs
			case "debounce":
				secs, ok := parseSeconds(value)
				if !ok || secs <= 0 {
					return invalid()
				}
				cl.DebounceSeconds = secs
			case "timeout", "classifier_timeout":
				secs, ok := parseSeconds(value)
				if !ok {
					return invalid()
				}
				if secs == 0 {
					secs = -1
				}
				cl.ClassifierTimeoutSeconds = secs
			case "scope":
				scope := models.Scope(value)
				if scope != models.ScopeDiff && scope != models.ScopeStaged {
					return invalid()
				}
				cl.Scope = value
			case "categories":
				next := config.ClassificationConfig{Categories: splitList(value)}
				cats, err := next.CategoryList()
				if err != nil {
					return invalid()
				}
				cl.Categories = cl.Categories[:0]
				for _, cat := range cats {
					cl.Categories = append(cl.Categories, string(cat))
				}
			case "precedence":
				next := config.ClassificationConfig{Precedence: splitList(value)}
				if len(next.Precedence) == 0 {
					cl.Precedence = nil
					break
				}
				cats, err := next.PrecedenceList()
				if err != nil {
					return invalid()
				}
				cl.Precedence = cl.Precedence[:0]
				for _, cat := range cats {
					cl.Precedence = append(cl.Precedence, string(cat))
				}
			default:
				msg := t.GetMessage("config.unknown_key", 0, map[string]interface{}{"Key": key})
				ui.PrintError(w, msg)
				return domainErrors.ErrInvalidConfig.WithContext("key", key)
			}

			if err := config.SaveConfig(cfg); err != nil {
				return domainErrors.ErrInvalidConfig.WithError(err)
			}

			ui.PrintSuccess(w, t.GetMessage("config.saved", 0, nil))
			return nil
		},
	}
}

// parseSeconds accepts a plain number of seconds or a Go duration ("90s", "30m").
func parseSeconds(value string) (int, bool) {
	if n, err := strconv.Atoi(value); err == nil {
		return n, true
	}
	d, err := time.ParseDuration(value)
	if err != nil || d%time.Second != 0 {
		return 0, false
	}
	return int(d / time.Second), true
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
