// Package main is the entry point of the powerdata CLI.
package main

import (
	"powerdata/cli/cmd"
)

func main() {
	cmd.Execute()
}
