package main

import (
	"strings"

	"github.com/spf13/cobra"

	"accentscan/internal/deps"
	"accentscan/internal/logging"
	"accentscan/internal/preflight"
	"accentscan/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the accent detector web page",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bind = strings.TrimSpace(bind); bind != "" {
				cfg.Paths.APIBind = bind
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			var historyStore server.HistoryStore
			if store != nil {
				defer store.Close()
				historyStore = store
			}

			analyzer, err := ctx.newAnalyzer(cmd.Context(), store)
			if err != nil {
				return err
			}

			for _, dep := range deps.Missing(preflight.CheckSystemDeps(cfg)) {
				logging.WarnWithContext(logger, "required binary missing", "dependency_missing",
					logging.String("dependency", dep.Name),
					logging.String("detail", dep.Detail),
					logging.String(logging.FieldImpact, "analyses will fail until it is installed"),
					logging.String(logging.FieldErrorHint, "run accentscan status"),
				)
			}
			for _, check := range preflight.Failed(preflight.RunAll(cmd.Context(), cfg)) {
				logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
					logging.String("check", check.Name),
					logging.String("detail", check.Detail),
					logging.String(logging.FieldImpact, "analyses may fail"),
					logging.String(logging.FieldErrorHint, "run accentscan status"),
				)
			}

			srv, err := server.New(cfg, analyzer, historyStore, logger)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides paths.api_bind)")
	return cmd
}
