// Command harness is the autonomous coding agent harness's CLI surface:
// run, loop, status, list, next, show.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
