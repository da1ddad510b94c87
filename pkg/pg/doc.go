// Package pg opens the pgx pool behind the Postgres item store and keeps its
// schema migrated.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	err = pg.Migrate(ctx, pool, migrations, cfg, log)
package pg
