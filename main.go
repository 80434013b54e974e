package main

import (
	"os"

	"github.com/zizibee/zizibee/cmd"
	"github.com/zizibee/zizibee/logger"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		logger.PrintSimpleError(err)
		os.Exit(1)
	}
}
