package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"accentscan/internal/api"
	"accentscan/internal/history"
	"accentscan/internal/pipeline"
	"accentscan/internal/services"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var quiet bool
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "analyze <url|file>",
		Short: "Download a video, transcribe it, and classify the speaker's accent",
		Long: `Download a video (YouTube and other yt-dlp sites, a direct media link, or a
local file), extract its audio, transcribe the speech, and report the detected
English accent with a confidence score and explanation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var store *history.Store
			if !noHistory {
				opened, err := ctx.openHistory()
				if err != nil {
					return err
				}
				if opened != nil {
					defer opened.Close()
					store = opened
				}
			}

			analyzer, err := ctx.newAnalyzer(cmd.Context(), store)
			if err != nil {
				return err
			}

			var onProgress pipeline.ProgressFunc
			if !jsonOutput && !quiet {
				onProgress = newProgressPrinter(cmd.ErrOrStderr()).update
			}

			report, err := analyzer.Analyze(cmd.Context(), args[0], onProgress)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				message := services.UserMessage(err)
				if jsonOutput {
					level := "error"
					if services.FailureStatus(err) == history.StatusInvalid {
						level = "warning"
					}
					if encErr := writeJSON(cmd, api.ErrorResponse{Error: message, Level: level, RunID: report.RunID}); encErr != nil {
						return encErr
					}
				} else {
					fmt.Fprintln(cmd.ErrOrStderr(), message)
				}
				return errReported
			}

			if jsonOutput {
				return writeJSON(cmd, api.FromReport(report))
			}
			fmt.Fprint(cmd.OutOrStdout(), renderReport(report, shouldColorize(cmd.OutOrStdout())))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run in the history database")
	return cmd
}
