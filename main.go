package main

import (
	"fmt"
	"os"

	"github.com/AnyUserName/imgbatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "imgbatch:", err)
		os.Exit(1)
	}
}
