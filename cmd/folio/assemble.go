package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/folio/internal/config"
	"github.com/JaimeStill/folio/internal/pipeline"
	"github.com/JaimeStill/folio/pkg/formatting"
	"github.com/JaimeStill/folio/pkg/notify"
)

func newAssembleCommand(opts *options) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "assemble [flags] IMAGE...",
		Short: "Bind images into one PDF on disk without uploading",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(opts.configPath)
			if err != nil {
				return err
			}

			logger := opts.logger(cmd.ErrOrStderr())
			notifier := notify.Multi(terminal(cmd.OutOrStdout()), notify.Log(logger))

			sel, err := selectPaths(cmd.Context(), args, "", notifier)
			if err != nil {
				return err
			}
			if sel.Len() == 0 {
				return pipeline.ErrNoFiles
			}

			proc := pipeline.New(newNormalizer(cfg, logger), nil, notifier, logger, cfg.Pipeline.Workers)

			data, doc, err := proc.Assemble(cmd.Context(), sel.Files())
			if err != nil {
				return err
			}

			if limit := cfg.Pipeline.MaxFileSizeBytes(); int64(len(data)) > limit {
				notify.Errorf(notifier, fmt.Sprintf(
					"Document is %s, above the %s upload limit",
					formatting.FormatBytes(int64(len(data)), 2),
					formatting.FormatBytes(limit, 2),
				))
			}

			if err := writeFile(out, data); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pages, %s\n", out, doc.PageCount(), formatting.FormatBytes(int64(len(data)), 1))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "document.pdf", "output file path")

	return cmd
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
