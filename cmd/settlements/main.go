// Package main is the entry point for the settlements pipeline CLI.
package main

import "github.com/settlementwatch/settlement-pipeline/cmd"

func main() {
	cmd.Execute()
}
