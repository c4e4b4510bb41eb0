//go:build cli
// +build cli

package main

import (
	_ "launcher.GO/custom"

	"launcher.GO/cmd"
	"launcher.GO/config"
)

func main() {
	config.LoadEnv()
	cmd.Execute()
}
