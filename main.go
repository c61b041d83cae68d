// Package main provides the roster CLI entry point.
// roster extracts meeting participants from transcripts and reconciles
// them against the corporate directory.
package main

import "github.com/lumahq/roster/cmd"

func main() {
	cmd.Execute()
}
