package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/labelminer/labelminer/internal/web"
)

var (
	serveAddr string
	serveFile string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a read-only dashboard over the output table",
	Long: `Serve starts an HTTP dashboard showing enrichment progress for an
output table, with JSON endpoints and a CSV download. The table is re-read
on every request, so it can run alongside an active pipeline.

Example:
  labelminer serve --file products.csv --addr :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&serveFile, "file", "products.csv", "output table CSV path")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	return web.NewServer(serveFile, logger).Run(serveAddr)
}
