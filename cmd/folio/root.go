package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/folio/internal/config"
	"github.com/JaimeStill/folio/internal/files"
	"github.com/JaimeStill/folio/internal/images"
	"github.com/JaimeStill/folio/internal/selection"
	"github.com/JaimeStill/folio/pkg/notify"
)

type options struct {
	configPath string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "folio",
		Short:         "Bind images into a single PDF and upload it in chunks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("load .env: %w", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.BaseConfigFile, "config file path")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline activity to stderr")

	cmd.AddCommand(newUploadCommand(opts))
	cmd.AddCommand(newAssembleCommand(opts))

	return cmd
}

func (o *options) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// terminal prints notifications for a person watching the command.
func terminal(w io.Writer) notify.Notifier {
	return notify.Func(func(n notify.Notification) {
		fmt.Fprintf(w, "%s: %s\n", n.Title, n.Message)
	})
}

// selectPaths loads every path into a fresh selection. Unsupported files are
// reported and skipped; an unreadable path fails the command.
func selectPaths(ctx context.Context, paths []string, name string, notifier notify.Notifier) (*selection.Selection, error) {
	sel := selection.New(selection.NewMemoryPreviews("preview"), notifier)

	candidates := make([]files.File, 0, len(paths))
	for _, p := range paths {
		f, err := files.FromPath(p)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, f)
	}

	// rejections were already reported through notifier
	sel.AddFiles(ctx, candidates...)

	if name != "" {
		sel.SetName(name)
	}
	return sel, nil
}

func newNormalizer(cfg *config.Config, logger *slog.Logger) *images.Normalizer {
	return images.New(cfg.Pipeline.NormalizeConfig(), logger)
}
