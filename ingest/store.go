package ingest

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"github.com/vidishraj/akkountant/integrations/postgres"
	"github.com/vidishraj/akkountant/integrations/sqlite"
)

// OpenStore opens the store named by database.driver at database.url and
// brings its schema up to date.
func OpenStore(ctx context.Context) (Store, error) {
	driver := viper.GetString("database.driver")
	url := viper.GetString("database.url")
	switch driver {
	case "sqlite", "":
		db, err := sqlite.Open(url)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := postgres.Connect(ctx, url)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
