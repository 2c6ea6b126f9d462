package main

import (
	"os"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	a := newApp()
	if err := a.rootCmd().Execute(); err != nil {
		os.Exit(a.report(err))
	}
}
