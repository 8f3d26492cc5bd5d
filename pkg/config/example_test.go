package config_test

import (
	"fmt"

	"github.com/HuyPham171-hub/goldsight-web/pkg/config"
)

// Example loads configuration and reads the forecast settings
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Server running on port: %s\n", cfg.Port)
	fmt.Printf("Environment: %s\n", cfg.Env)
	fmt.Printf("Model manifest: %s\n", cfg.Forecast.ManifestPath())
	fmt.Printf("Scheduled horizons: %v\n", cfg.Forecast.Horizons)
}
