// Package pg manages the PostgreSQL connection pool and schema migrations.
//
// Connect builds a pgxpool.Pool from environment configuration with retry
// on startup. Migrate applies embedded goose SQL migrations through the
// same pool. The error helpers translate driver-level failures
// (pgx.ErrNoRows, unique violations) into checks repositories can branch
// on without importing pgx themselves.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, migrationsFS, "migrations", cfg, log); err != nil {
//		return err
//	}
package pg
