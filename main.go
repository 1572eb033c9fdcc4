package main

import (
	"fmt"
	"os"

	"github.com/cmmiller26/ai-fun-token-wheel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
