// Command distrocompare serves the Linux distribution comparison engine.
package main

import (
	"fmt"
	"os"

	"github.com/HerbHall/distrocompare/internal/version"
)

const usage = `Usage: distrocompare [command] [flags]

Commands:
  serve     run the HTTP API (default)
  compile   combine per-distribution documents into one catalog
  proxy     run the CORS relay
  mcp       serve the engine as MCP tools over stdio
  version   print version information

Run "distrocompare <command> -h" for command flags.
`

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		runServe(args)
	case "compile":
		runCompile(args)
	case "proxy":
		runProxy(args)
	case "mcp":
		runMCP(args)
	case "version":
		fmt.Println(version.Info())
	case "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
}
