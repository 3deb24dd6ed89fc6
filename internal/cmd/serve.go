package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Larryzhang-S/figma-dl/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the download tool over stdio (JSON-RPC 2.0)",
	Long: `Serve runs a line-delimited JSON-RPC 2.0 tool server on stdin/stdout.
The server exposes a single tool, download_figma_images, so the downloader
can be driven by agent hosts. Logs go to stderr only.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	client, err := newClient(logger)
	if err != nil {
		return err
	}
	defer client.Close()

	server := mcp.NewServer(client, logger)
	return server.Serve(cmd.Context(), os.Stdin, os.Stdout)
}
