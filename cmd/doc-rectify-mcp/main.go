package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/doc-rectify-mcp/internal/config"
	"github.com/ironsheep/doc-rectify-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("doc-rectify-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("doc-rectify-mcp - MCP server for straightening and cleaning document photos")
			fmt.Println()
			fmt.Println("Usage: doc-rectify-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  DOC_RECTIFY_LOG_LEVEL=debug        Enable debug logging")
			fmt.Println("  DOC_RECTIFY_ANALYZER=edge|density  Content analyzer")
			fmt.Println("  DOC_RECTIFY_BATCH_WORKERS=N        Concurrent files per batch")
			fmt.Println("  DOC_RECTIFY_<OPTION>               Any pipeline option by its upper-cased")
			fmt.Println("                                     JSON name, e.g. DOC_RECTIFY_JPEG_QUALITY=85")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	debug := os.Getenv("DOC_RECTIFY_LOG_LEVEL") == "debug"
	if debug {
		log.Printf("Doc Rectify MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	opts := config.Load()
	srv, err := server.New(opts)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	server.Version = Version
	srv.SetDebug(debug)

	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
