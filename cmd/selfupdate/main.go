package main

import (
	"os"

	"github.com/netbirdio/selfupdate/cmd/selfupdate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
