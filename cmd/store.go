package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/premises-cli/internal/records"
)

// initStore opens the premises store selected by records.driver.
func initStore(ctx context.Context) (records.Store, error) {
	switch cfg.Records.Driver {
	case "postgres":
		if cfg.Records.DatabaseURL == "" {
			return nil, eris.New("records database URL is required (PREMISES_RECORDS_DATABASE_URL)")
		}
		return records.NewPostgres(ctx, cfg.Records.DatabaseURL, nil)
	case "sqlite":
		st, err := records.NewSQLite(cfg.Records.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		return st, nil
	case "fixture":
		return records.NewFixture(), nil
	default:
		return nil, eris.Errorf("unknown records driver %q", cfg.Records.Driver)
	}
}
