// Package main is the entry point of the fdtplatform command.
package main

import (
	"github.com/sarchlab/fdtplatform/fdtplatform/cmd"
	"github.com/tebeka/atexit"
)

func main() {
	cmd.Execute()
	atexit.Exit(0)
}
