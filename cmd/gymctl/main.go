// Command gymctl runs operator tasks against the gymbeta database.
package main

import (
	"os"

	"gymbeta/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error("gymctl failed", "error", err)
		os.Exit(1)
	}
}
