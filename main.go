// Package main is the entry point for the jolt CLI.
package main

import "jolt.dev/pkg/jolt/cmd"

func main() {
	cmd.Execute()
}
