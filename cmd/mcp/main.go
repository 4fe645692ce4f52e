package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	mcpapi "github.com/civikit/catalog/internal/api/mcp"
)

// main starts the catalog MCP server on stdio.
func main() {
	cfg, err := mcpapi.ParseConfig()
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}
	log.SetPrefix("[MCP] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mcpapi.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve MCP: %v", err)
	}
}
