package main

import (
	"fmt"
	"os"

	"github.com/offlinefirst/inputtrail/internal/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "inputtrail:", err)
		os.Exit(1)
	}
}
