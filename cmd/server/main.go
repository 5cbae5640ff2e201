package main

import (
	"flag"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"xctrace-mcp/internal/config"
	"xctrace-mcp/internal/logging"
	"xctrace-mcp/internal/mcptools"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	flag.Parse()

	conf := config.Default()
	if *configPath != "" {
		var err error
		if conf, err = config.Parse(*configPath); err != nil {
			log.Fatalf("Config error: %v", err)
		}
	}

	logger, err := logging.New(conf.LogLevel)
	if err != nil {
		log.Fatalf("Logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Create MCP server
	s := mcptools.NewServer(mcptools.New(conf, logger), "1.0.0")

	// Start the server
	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
