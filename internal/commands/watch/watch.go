package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/thomas-vilte/changelens/internal/commands/completion_helper"
	"github.com/thomas-vilte/changelens/internal/config"
	"github.com/thomas-vilte/changelens/internal/engine"
	"github.com/thomas-vilte/changelens/internal/i18n"
	"github.com/thomas-vilte/changelens/internal/logger"
	"github.com/thomas-vilte/changelens/internal/models"
	"github.com/thomas-vilte/changelens/internal/observability"
	"github.com/thomas-vilte/changelens/internal/ui"
	"github.com/thomas-vilte/changelens/internal/watch"
	"github.com/urfave/cli/v3"
)

type WatchCommandFactory struct {
	base engine.Options
}

func NewWatchCommandFactory(base engine.Options) *WatchCommandFactory {
	return &WatchCommandFactory{base: base}
}

func (f *WatchCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: t.GetMessage("watch.usage", 0, nil),
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   t.GetMessage("watch.flag_interval", 0, nil),
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: t.GetMessage("watch.flag_debounce", 0, nil),
			},
			&cli.StringFlag{
				Name:    "scope",
				Aliases: []string{"s"},
				Usage:   t.GetMessage("watch.flag_scope", 0, nil),
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Value:   ".",
				Usage:   t.GetMessage("watch.flag_dir", 0, nil),
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: t.GetMessage("watch.flag_metrics_addr", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "no-initial",
				Usage: t.GetMessage("watch.flag_no_initial", 0, nil),
			},
		},
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action:        f.watchAction(t, cfg),
	}
}

func (f *WatchCommandFactory) watchAction(t *i18n.Translations, cfg *config.Config) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		w := &lockedWriter{w: completion_helper.Writer(command)}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := f.base
		opts.Dir = command.String("dir")
		opts.Scope = models.Scope(command.String("scope"))
		opts.Interval = command.Duration("interval")
		opts.Debounce = command.Duration("debounce")

		var telemetry *observability.Telemetry
		metricsErr := make(chan error, 1)
		if addr := command.String("metrics-addr"); addr != "" {
			tel, err := observability.NewPrometheusTelemetry()
			if err != nil {
				return err
			}
			telemetry = tel
			opts.Metrics = tel.Metrics
			go func() {
				metricsErr <- tel.Serve(ctx, addr)
			}()
		}

		opts.Subscribers = append(opts.Subscribers, func(_ context.Context, record models.StoredClassification) {
			ui.PrintClassification(w, t, record)
		})

		eng, err := engine.New(ctx, cfg, opts)
		if err != nil {
			return err
		}
		if _, err := eng.SeedFromLast(ctx); err != nil {
			logger.Warn(ctx, "could not read last classification", "error", err)
		}

		watcher, err := watch.New(opts.Dir, func(path string) {
			logger.Debug(ctx, "file saved", "path", path)
			eng.Scheduler.AutoSave()
		})
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}

		manual := make(chan os.Signal, 1)
		if len(manualSaveSignals) > 0 {
			signal.Notify(manual, manualSaveSignals...)
			defer signal.Stop(manual)
		}

		cl := cfg.Classification
		interval, debounce := opts.Interval, opts.Debounce
		if interval <= 0 {
			interval = cl.Interval()
		}
		if debounce <= 0 {
			debounce = cl.Debounce()
		}
		ui.PrintInfo(w, t.GetMessage("watch.started", 0, map[string]interface{}{
			"Dir":      opts.Dir,
			"Scope":    string(eng.Scope),
			"Interval": interval.String(),
			"Debounce": debounce.String(),
		}))
		if len(manualSaveSignals) > 0 {
			_, _ = fmt.Fprintln(w, ui.Dim.Sprint(t.GetMessage("watch.manual_save_hint", 0, nil)))
		}

		eng.Scheduler.Start()
		if !command.Bool("no-initial") {
			eng.Scheduler.RequestNow()
		}

		var serveErr error
	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case <-manual:
				eng.Scheduler.ManualSave()
			case serveErr = <-metricsErr:
				if serveErr != nil {
					logger.Error(ctx, "metrics server stopped", serveErr)
					stop()
				}
				metricsErr = nil
			}
		}

		ui.PrintInfo(w, t.GetMessage("watch.stopping", 0, nil))
		watcher.Stop()
		eng.Scheduler.Dispose()
		eng.Scheduler.Wait()

		if telemetry != nil {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if metricsErr != nil {
				<-metricsErr
			}
			if err := telemetry.Shutdown(shutdownCtx); err != nil {
				logger.Warn(ctx, "could not shut down metrics", "error", err)
			}
		}

		ui.PrintSuccess(w, t.GetMessage("watch.stopped", 0, nil))
		return serveErr
	}
}

// lockedWriter serializes output from the cycle goroutine and the command.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
