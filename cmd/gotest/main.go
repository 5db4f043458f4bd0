// Command gotest is a stock driver binary for projects that don't need a
// custom entry point of their own: blank-import your test packages below
// so their init() registrations run, then build this binary instead of
// writing main.go by hand.
package main

import (
	"os"

	"gotest"
)

func main() {
	os.Exit(gotest.Main(os.Args[1:]))
}
