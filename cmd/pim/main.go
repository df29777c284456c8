package main

import (
	"os"

	"github.com/wonny/pim/backend/cmd/pim/commands"
)

// main is the entry point for the PIM completeness CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/pim [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
