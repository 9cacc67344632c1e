package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/datalens-cli/internal/logger"
	"github.com/KaramelBytes/datalens-cli/internal/server"
	"github.com/KaramelBytes/datalens-cli/internal/session"
	"github.com/spf13/cobra"
)

var (
	serveAddr      string
	serveMaxUpload int64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the session API over HTTP",
	Long: `Start an HTTP server exposing sessions:

  POST   /api/sessions                       {"api_key": "..."} -> {"session_id": "..."}
  POST   /api/sessions/{id}/dataset          multipart "file" (+ ?type=csv|excel)
  POST   /api/sessions/{id}/query            {"query": "..."}
  DELETE /api/sessions/{id}
  GET    /healthz`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = cfg.ServerAddr
		}
		// Validate chart settings once before accepting sessions.
		rend, err := newRenderer(cfg)
		if err != nil {
			return err
		}
		srv := server.New(server.Config{
			NewSession: func() *session.Session {
				s, _, _ := newSession(cfg, logger.NewRequestLogger())
				return s
			},
			ImageContentType: rend.Format().ContentType(),
			PreviewRows:      cfg.PreviewRows,
			MaxUpload:        serveMaxUpload,
		})
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", addr)
		if err := srv.Run(ctx, addr); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config server_addr)")
	serveCmd.Flags().Int64Var(&serveMaxUpload, "max-upload", 32<<20, "max upload size in bytes")
}
