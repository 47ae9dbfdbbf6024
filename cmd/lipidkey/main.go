// LipidKey - Lipid formula and fragment library generator
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/lipidkey/cmd/lipidkey/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
