// Command studiodesk runs the studio operations agents from the command
// line or as an HTTP service.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/studiodesk/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
