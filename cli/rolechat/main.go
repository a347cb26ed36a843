package main

import (
	"os"

	rolechatcmder "github.com/canopyhq/rolechat/cmd/rolechat"
)

func main() {
	cmd := rolechatcmder.NewRolechatCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
