package cli

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/lens/internal/lsp"
)

var flagPort uint32

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the language server",
	Long: "Serve speaks the language server protocol on stdin/stdout, or on a TCP " +
		"connection to the client when --port is given. Logs go to stderr.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Flags(), flagRules)
		if err != nil {
			return err
		}

		var rwc io.ReadWriteCloser
		if flagPort > 0 {
			conn, err := net.Dial("tcp", fmt.Sprintf(":%d", flagPort))
			if err != nil {
				fail(err)
				return nil
			}
			rwc = conn
		} else {
			rwc = lsp.StdioConn(os.Stdin, os.Stdout)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = lsp.Serve(ctx, rwc, e.session, e.logger.Named("lsp"), lsp.Options{
			ReviewOnOpen: e.cfg.LSP.ReviewOnOpen,
			Version:      version,
		})
		if err != nil {
			fail(err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().Uint32Var(&flagPort, "port", 0, "Port of a listening client to connect to")
	serveCmd.Flags().StringVar(&flagRules, "rules", "", "Rules file path")
	addAnalyzerFlags(serveCmd.Flags())
}
