// Command beadsync synchronizes a project's canonical issue store with its
// Markdown tree and, optionally, an external tracker mirror.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeFor(err))
	}
}
