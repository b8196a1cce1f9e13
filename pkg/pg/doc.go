// Package pg bootstraps PostgreSQL access on top of pgx/v5: a retrying pool
// constructor, goose migrations run from an fs.FS, a health check closure and
// helpers that classify *pgconn.PgError codes.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, db.Migrations(), cfg, log); err != nil {
//	    return err
//	}
//
// Configuration is read from PG_* environment variables; see Config.
package pg
