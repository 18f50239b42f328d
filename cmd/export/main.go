// Command export renders a saved page payload to an xlsx or pdf file offline,
// using the same catalog, aggregation and writers as the portal API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
