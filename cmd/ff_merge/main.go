// Command ff_merge stitches together a directory of per-tag checkpoint
// fragments (each written by a separate ff_insert -save run) into one
// combined output, without touching the black box.
package main

import (
	"os"

	"github.com/agbru/firefly/internal/ffrun"
)

func main() {
	programName := "ff_merge"
	var args []string
	if len(os.Args) > 0 {
		programName = os.Args[0]
		args = os.Args[1:]
	}
	os.Exit(ffrun.Main(programName, args, os.Stdout, os.Stderr, true))
}
