package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/harrybrwn/neucore-slack/internal/bridge"
)

func newServeCmd(ctx *Context) *cobra.Command {
	var (
		port    uint16
		migrate bool
	)
	c := cobra.Command{
		Use:   "serve",
		Short: "Serve the plugin operations to the Neucore host over http",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sigctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			svc, err := ctx.WithCtx(sigctx).service()
			if err != nil {
				return err
			}
			if migrate {
				if err = svc.Migrate(sigctx); err != nil {
					return err
				}
			}
			if port == 0 {
				port = ctx.conf.Port
			}
			var opts []bridge.Option
			if len(ctx.conf.JWTSecret) > 0 {
				opts = append(opts, bridge.WithJWTSecret([]byte(ctx.conf.JWTSecret)))
			} else {
				ctx.logger.Warn("no jwt secret set, host requests are not authenticated")
			}
			srv := http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           bridge.New(svc, ctx.logger, opts...),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errs := make(chan error, 1)
			go func() { errs <- srv.ListenAndServe() }()
			ctx.logger.Info("starting server", "port", port)
			select {
			case err = <-errs:
				return errors.WithStack(err)
			case <-sigctx.Done():
			}
			ctx.logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(sigctx), 15*time.Second)
			defer cancel()
			return errors.WithStack(srv.Shutdown(shutdownCtx))
		},
	}
	c.Flags().Uint16VarP(&port, "port", "p", port, "server port (default from NEUCORE_PLUGIN_SLACK_PORT)")
	c.Flags().BoolVar(&migrate, "migrate", migrate, "create the invite table before serving")
	return &c
}
