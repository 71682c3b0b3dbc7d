package main

import (
	"fmt"
	"os"

	"github.com/scr2em/kitbase-go/cmd/kitbase/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
