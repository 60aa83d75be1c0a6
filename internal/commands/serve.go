package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/stmt2tally/internal/server"
	"github.com/cleared-dev/stmt2tally/internal/session"
)

// sessionTTL is how long an idle upload session is kept.
const sessionTTL = 2 * time.Hour

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the statement upload and voucher download API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			return runServe(cmd, a)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, a *app) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.log.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := server.New(a.service(), session.NewManager(sessionTTL), server.Options{
		Layout:         a.cfg.Parser.Layout,
		Tally:          a.tallyOptions(),
		Format:         a.format(),
		MaxUploadBytes: a.cfg.Server.MaxUploadMB << 20,
	}, a.log)

	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", a.cfg.Server.Addr)
	return srv.Run(ctx, a.cfg.Server.Addr)
}
