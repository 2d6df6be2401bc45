package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/askiada/pipeline-editor/internal/backend"
	"github.com/askiada/pipeline-editor/internal/config"
	"github.com/askiada/pipeline-editor/internal/logger"
	"github.com/askiada/pipeline-editor/pkg/editor"
	"github.com/askiada/pipeline-editor/pkg/editor/interaction"
	"github.com/askiada/pipeline-editor/pkg/editor/measure"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app is what every subcommand gets once the configuration is loaded.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	measure *measure.DefaultMeasure
}

func rootCmd() *cobra.Command {
	var cfgFile string
	a := &app{}

	root := &cobra.Command{
		Use:   "pipeline-editor",
		Short: "Headless pipeline graph editor",
		Long: `pipeline-editor loads pipeline documents, replays editor gestures on them
and renders the resulting graph as SVG, PNG or Graphviz DOT.

Pipelines come from the HTTP service set by backend.url, or from <uuid>.json
files in backend.dir.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.New()
			for key, flag := range map[string]string{
				"debug":       "debug",
				"log_format":  "log-format",
				"backend.url": "backend-url",
				"backend.dir": "backend-dir",
			} {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return errors.Wrapf(err, "unable to bind flag %s", flag)
				}
			}

			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Config)
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.logger = log
			a.measure = measure.NewDefaultMeasure()

			log.Debug("configuration loaded",
				zap.String("file", cfg.File),
				zap.String("backend_url", cfg.Backend.URL),
				zap.String("backend_dir", cfg.Backend.Dir),
			)

			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./pipeline-editor.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.String("log-format", logger.FormatHuman, "log format: json or human")
	flags.String("backend-url", "", "pipeline service base URL")
	flags.String("backend-dir", ".", "directory of <uuid>.json pipelines, used without a backend URL")

	root.AddCommand(renderCmd(a))
	root.AddCommand(replayCmd(a))
	root.AddCommand(importDOTCmd(a))

	return root
}

// backend picks the HTTP service when a URL is configured.
func (a *app) backend() editor.Backend {
	if a.cfg.Backend.URL != "" {
		return backend.NewHTTP(a.cfg.Backend.URL,
			backend.WithHTTPLogger(a.logger),
			backend.WithTimeout(a.cfg.Backend.Timeout),
			backend.WithRetries(a.cfg.Backend.Retries),
		)
	}

	return backend.NewFile(a.cfg.Backend.Dir)
}

// saveTracker keeps the first save failure so that a command can report it.
type saveTracker struct {
	editor.NopObserver

	mu  sync.Mutex
	err error
}

func (s *saveTracker) OnSaved(_ string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err == nil {
		s.err = err
	}
}

func (s *saveTracker) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

func (a *app) newEditor(dispatcher *interaction.Dispatcher, opts ...editor.Option) *editor.Editor {
	base := []editor.Option{
		editor.WithLogger(a.logger),
		editor.WithLayout(a.cfg.Editor.Layout),
		editor.WithDragThreshold(a.cfg.Editor.DragThreshold),
		editor.WithHitTolerance(a.cfg.Editor.HitTolerance),
		editor.WithMeasure(a.measure),
	}

	return editor.New(a.backend(), dispatcher, append(base, opts...)...)
}
