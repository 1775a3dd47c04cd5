// Command ff_insert reconstructs one or more multivariate rational
// functions over the rationals from a black-box oracle over finite
// fields, driven by config/functions and config/vars files inside the
// input directory named on the command line.
package main

import (
	"os"

	"github.com/agbru/firefly/internal/ffrun"
)

func main() {
	programName := "ff_insert"
	var args []string
	if len(os.Args) > 0 {
		programName = os.Args[0]
		args = os.Args[1:]
	}
	os.Exit(ffrun.Main(programName, args, os.Stdout, os.Stderr, false))
}
