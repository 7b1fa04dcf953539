// justbuilt: Development Timeline MCP Server
//
// Records how a project was built (plans, decisions, generated code and
// user edits) as a branching timeline that any MCP-capable AI coding tool
// can navigate.
//
// Usage:
//
//	justbuilt serve              # Start MCP server (stdio transport)
//	justbuilt projects           # List stored timelines
//	justbuilt inspect <project>  # Print branches, checkpoints and current path
//	justbuilt export <project>   # Write the timeline snapshot as JSON
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
