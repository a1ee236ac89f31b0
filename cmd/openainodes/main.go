// Command openainodes runs the OpenAI task nodes from the command line,
// over HTTP, or as MCP tools.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		fatal(err)
		os.Exit(1)
	}
}
