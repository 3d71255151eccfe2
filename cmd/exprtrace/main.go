// Command exprtrace traces, evaluates and catalogs expression trees.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/exprtrace/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "exprtrace:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
