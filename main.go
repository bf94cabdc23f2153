package main

import (
	"fmt"
	"os"

	"telegram-fasting-tracker/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
