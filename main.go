// Package main is the entry point for the mailauth CLI.
package main

import (
	"mailauth/cmd/mailauth/commands"
)

func main() {
	commands.Execute()
}
