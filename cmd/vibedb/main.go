package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		if !errors.Is(err, errNoRows) {
			fmt.Fprintf(os.Stderr, "vibedb: %v\n", err)
		}
		os.Exit(1)
	}
}
