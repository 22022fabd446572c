package main

import (
	"os"
	"path/filepath"

	"github.com/karasz/gtleap/cmd"
)

func main() {
	_, calledAs := filepath.Split(os.Args[0])
	args := os.Args[1:]
	var res int
	switch calledAs {
	case "gtailocal":
		res = cmd.GTAILocalRun(args)
	default:
		res = cmd.MainDispatcher(args)
	}
	os.Exit(res)
}
