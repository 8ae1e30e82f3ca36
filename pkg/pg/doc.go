// Package pg opens a pgx connection pool with retries, applies embedded goose
// migrations through the database/sql bridge and exposes a readiness probe.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, catalog.Migrations, cfg, log); err != nil {
//		return err
//	}
//
// Error helpers such as IsNotFoundError and IsDuplicateKeyError classify pgx
// errors for store implementations.
package pg
