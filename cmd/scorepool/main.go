// Command scorepool runs a synthetic relic scoring workload through the
// scheduler and prints the best build with a state snapshot.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
