package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kompox/knative-charms/adapters/store/inmem"
	"github.com/kompox/knative-charms/adapters/store/rdb"
	"github.com/kompox/knative-charms/domain"
)

// buildStateRepository creates the unit state repository selected by db-url.
// "inmem:" keeps state for the lifetime of the process only.
func buildStateRepository(cmd *cobra.Command) (domain.UnitStateRepository, error) {
	dbURL := flagString(cmd, "db-url")
	switch {
	case dbURL == "inmem:" || dbURL == "memory:":
		return inmem.NewUnitStateRepository(), nil
	case strings.HasPrefix(dbURL, "sqlite:") || strings.HasPrefix(dbURL, "sqlite3:"):
		db, err := rdb.OpenFromURL(dbURL)
		if err != nil {
			return nil, err
		}
		if err := rdb.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate %s: %w", dbURL, err)
		}
		return rdb.NewUnitStateRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported db scheme: %s", dbURL)
	}
}
