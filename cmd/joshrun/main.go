// Command joshrun drives a Josh simulation Program for a fixed number of
// steps from the command line. Grounded on the teacher's cmd/dwscript
// entrypoint, which delegates entirely to a cobra root command.
package main

import (
	"fmt"
	"os"

	"github.com/joshsim/joshcore/cmd/joshrun/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
