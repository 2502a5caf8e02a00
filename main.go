// The main package for the ptrcrawler executable.
package main

import (
	"github.com/fedwatch/ptr-crawler/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
