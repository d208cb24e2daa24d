package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-formbuilder/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "formbuilder:", err)
		os.Exit(1)
	}
}
