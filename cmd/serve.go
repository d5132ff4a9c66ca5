package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var (
	port     int
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long: `Start the HTTP web server with HTMX interface.

The web server provides a browser-based dashboard for the MLI rankings
table, state detail pages, and the divergence insights page, plus JSON
API endpoints.`,
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to run the server on")
}

func runServe() {
	fmt.Printf("Starting MLI Atlas web server...\n")
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Printf("Port: %d\n\n", port)

	if err := StartServer(port, dataDir); err != nil {
		log.Fatalf("Server failed: %v\n", err)
	}
}
