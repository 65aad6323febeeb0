package config_test

import (
	"context"
	"fmt"
	"log"

	"github.com/sagarc03/duplo/config"
)

func ExampleLoad() {
	// Load with defaults only (no config file)
	cfg, err := config.Load(nil, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Addr: %s, Cleanup: %s UTC\n", cfg.Server.Addr, cfg.Cleanup.TimeUTC)
	// Output: Addr: :5708, Cleanup: 00:00:00 UTC
}

func ExampleWithContext() {
	cfg, _ := config.Load(nil, nil)

	// Store config in context
	ctx := config.WithContext(context.Background(), cfg)

	// Retrieve later (e.g., in a subcommand)
	retrieved, err := config.FromContext(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Transient pool: %s\n", retrieved.Storage.Transient.Path)
	// Output: Transient pool: ./transient
}
