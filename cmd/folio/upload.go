package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/folio/internal/config"
	"github.com/JaimeStill/folio/internal/infrastructure"
	"github.com/JaimeStill/folio/internal/pipeline"
	"github.com/JaimeStill/folio/internal/transfer"
	"github.com/JaimeStill/folio/pkg/formatting"
	"github.com/JaimeStill/folio/pkg/notify"
)

func newUploadCommand(opts *options) *cobra.Command {
	var (
		target string
		name   string
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "upload [flags] IMAGE...",
		Short: "Bind images into one PDF and upload it to a target record",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(opts.configPath)
			if err != nil {
				return err
			}

			if target == "" {
				target = cfg.Pipeline.TargetID
			}
			if target == "" {
				return fmt.Errorf("--target is required when pipeline.target_id is not configured")
			}

			logger := opts.logger(cmd.ErrOrStderr())

			infra, err := infrastructure.NewWithLogger(cfg, logger)
			if err != nil {
				return err
			}
			if err := infra.Start(); err != nil {
				return err
			}
			infra.Lifecycle.WaitForStartup()

			notifier := notify.Multi(terminal(cmd.OutOrStdout()), notify.Log(logger))

			sel, err := selectPaths(cmd.Context(), args, name, notifier)
			if err != nil {
				return err
			}

			var uploadOpts []transfer.Option
			if !quiet {
				bar := progressbar.NewOptions64(
					-1,
					progressbar.OptionSetDescription("uploading"),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionShowBytes(true),
					progressbar.OptionClearOnFinish(),
				)
				defer bar.Finish()

				uploadOpts = append(uploadOpts, transfer.WithProgress(func(s transfer.Session) {
					if bar.GetMax64() != int64(s.Total) {
						bar.ChangeMax64(int64(s.Total))
					}
					bar.Set64(int64(s.Cursor))
				}))
			}

			uploader := transfer.New(infra.Sink, cfg.Pipeline.TransferConfig(), logger, uploadOpts...)
			proc := pipeline.New(newNormalizer(cfg, logger), uploader, notifier, logger, cfg.Pipeline.Workers)

			result, err := proc.Process(cmd.Context(), sel, target)
			if err != nil {
				return err
			}

			fmt.Fprintf(
				cmd.OutOrStdout(),
				"%s: %d pages, %s in %d chunks, id %s\n",
				result.Name,
				result.PageCount,
				formatting.FormatBytes(int64(result.Bytes), 1),
				result.Session.Chunks,
				result.Session.Token,
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "id of the record that receives the document")
	cmd.Flags().StringVarP(&name, "name", "n", "", "document display name (defaults to the first image)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")

	return cmd
}
