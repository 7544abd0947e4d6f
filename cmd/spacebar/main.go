package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/bryanchriswhite/SpaceBar/cmd/spacebar/commands"
	"github.com/bryanchriswhite/SpaceBar/internal/focus"
)

// Accessibility callbacks need the main thread's run loop.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := focus.RunMain(commands.Execute); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
