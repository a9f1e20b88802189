// cmd/kast/main.go
package main

import (
	"fmt"
	"os"

	"github.com/kastsec/kast/cmd/kast/commands"
)

func main() {
	if err := commands.NewCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
