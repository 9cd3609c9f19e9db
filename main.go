package main

import (
	"os"

	"github.com/galaxyproject/gxrunner/cmd"
	"github.com/galaxyproject/gxrunner/logger"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		logger.PrintSimpleError(err)
		os.Exit(1)
	}
}
