package main

import (
	"os"

	"github.com/HuyPham171-hub/goldsight-web/cmd/goldsight/commands"
)

// main is the entry point for the GoldSight CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/goldsight [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
