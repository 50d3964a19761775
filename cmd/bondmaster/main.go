package main

import (
	"os"

	"github.com/wonny/bondmaster/backend/cmd/bondmaster/commands"
)

// main is the entry point for the bondmaster CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/bondmaster [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
