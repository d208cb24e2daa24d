package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/internal/server"
)

func newServeCmd(env *Env) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the builder UI and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				env.Config.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := env.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return server.New(a).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}
