// file: main.go
// version: 2.0.0
// guid: 0e6f2b8a-4c1d-4f7e-9a3b-8d5c6e7f1a20

package main

import (
	"fmt"
	"os"

	"github.com/jdfalk/lending-library/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
