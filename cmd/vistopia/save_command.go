package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rizkirmdhn/vistopia/internal/archiver"
	"github.com/rizkirmdhn/vistopia/internal/downloader"
	"github.com/rizkirmdhn/vistopia/internal/tagging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newSaveCommand(ctx *commandContext) *cobra.Command {
	var (
		episodes  string
		outputDir string
		noTag     bool
		noCover   bool
	)

	cmd := &cobra.Command{
		Use:   "save <show-id>",
		Short: "Download every episode of a show that is not on disk yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseShowID(args[0])
			if err != nil {
				return err
			}
			filter, err := parseEpisodeSet(episodes)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dlCfg := *cfg.GetDownloaderConfig()
			if outputDir != "" {
				dlCfg.OutputDir = outputDir
			}

			log := ctx.logger()
			client, err := ctx.catalogClient()
			if err != nil {
				return err
			}

			concat := downloader.NewFFmpegConcatenator(dlCfg.FFmpegPath, log)
			if _, err := concat.Available(); err != nil {
				log.WithFields(logrus.Fields{
					"component": "main",
					"error":     err,
				}).Warn("Video episodes will fail without ffmpeg")
			}

			fetcher := downloader.NewFetcher(&dlCfg, log)
			video := downloader.NewDownloaderService(&dlCfg, log,
				downloader.WithFetcher(fetcher),
				downloader.WithConcatenator(concat),
				downloader.WithProgress(newSegmentProgress(os.Stderr)),
			)

			events, closeEvents := ctx.eventPublisher()
			defer closeEvents()

			svc := archiver.NewService(&dlCfg, client, log,
				archiver.WithFetcher(fetcher),
				archiver.WithVideoDownloader(video),
				archiver.WithTagger(tagging.NewTagger(nil, log)),
				archiver.WithEvents(events),
				archiver.WithRunID(ctx.runID),
			)

			summary, err := svc.SaveShow(cmd.Context(), id, archiver.Options{
				Episodes: filter,
				NoTag:    noTag,
				NoCover:  noCover,
			})

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Completed", "Failed", "Skipped"},
				[][]string{{
					strconv.Itoa(summary.Completed),
					strconv.Itoa(summary.Failed),
					strconv.Itoa(summary.Skipped),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight},
			))

			if err != nil {
				return err
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d episode(s) failed", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&episodes, "episodes", "e", "", "Episode sort numbers to download, e.g. 1,3,5-8")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory the show folder is created in")
	cmd.Flags().BoolVar(&noTag, "no-tag", false, "Do not write ID3 tags into audio episodes")
	cmd.Flags().BoolVar(&noCover, "no-cover", false, "Do not embed the show cover into audio episodes")

	return cmd
}

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	var (
		episodes  string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "transcript <show-id>",
		Short: "Save episode articles as HTML and PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseShowID(args[0])
			if err != nil {
				return err
			}
			filter, err := parseEpisodeSet(episodes)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root := cfg.GetDownloaderConfig().OutputDir
			if outputDir != "" {
				root = outputDir
			}

			log := ctx.logger()
			client, err := ctx.catalogClient()
			if err != nil {
				return err
			}

			svc := transcriptService(cfg, root, client, log)
			stats, err := svc.SaveTranscript(cmd.Context(), id, filter)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Transcripts: %d written, %d skipped, %d failed\n",
				stats.Completed, stats.Skipped, stats.Failed)
			if stats.Failed > 0 {
				return fmt.Errorf("%d transcript(s) failed", stats.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&episodes, "episodes", "e", "", "Episode sort numbers to convert, e.g. 1,3,5-8")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory the show folder is created in")

	return cmd
}
