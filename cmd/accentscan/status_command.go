package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"accentscan/internal/config"
	"accentscan/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check external tools, directories, and API access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			lines := renderSectionHeader("Configuration", colorize)
			lines = append(lines, configLines(cfg, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(preflight.CheckSystemDeps(cfg), colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			lines = append(lines, checkLines(preflight.RunAll(cmd.Context(), cfg), colorize)...)

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}

func configLines(cfg *config.Config, colorize bool) []string {
	transcriber := cfg.Transcription.Provider
	if model := strings.TrimSpace(cfg.Transcription.Model); model != "" {
		transcriber = fmt.Sprintf("%s (%s)", transcriber, model)
	}
	classifier := cfg.Classifier.Mode
	switch {
	case cfg.Classifier.Mode == config.ClassifierModeAuto && cfg.UsesLLM():
		classifier += fmt.Sprintf(" (LLM %s, keyword fallback)", cfg.LLM.Model)
	case cfg.Classifier.Mode == config.ClassifierModeAuto:
		classifier += " (keyword, no LLM key)"
	case cfg.UsesLLM():
		classifier += fmt.Sprintf(" (%s)", cfg.LLM.Model)
	}
	historyDetail := "disabled"
	if cfg.History.Enabled {
		historyDetail = fmt.Sprintf("%s (keep %d)", cfg.HistoryDBPath(), cfg.History.MaxEntries)
	}
	return []string{
		renderStatusLine("Transcriber", statusInfo, transcriber, colorize),
		renderStatusLine("Classifier", statusInfo, classifier, colorize),
		renderStatusLine("History", statusInfo, historyDetail, colorize),
		renderStatusLine("UI address", statusInfo, cfg.Paths.APIBind, colorize),
		renderStatusLine("CUDA", statusInfo, yesNo(cfg.Transcription.WhisperXCUDAEnabled), colorize),
	}
}
