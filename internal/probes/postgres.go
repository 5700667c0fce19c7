package probes

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
)

// PostgresProbe connects to the platform database and counts user tables,
// which exercises authentication, the catalog, and query execution in one
// round trip.
func PostgresProbe(ctx context.Context, dsn string) Result {
	if dsn == "" {
		return Result{
			Service: "postgres",
			Status:  StatusDegraded,
			Reason:  "postgres credentials not configured",
		}
	}

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return Result{Service: "postgres", Status: StatusDown, Reason: err.Error()}
	}
	defer conn.Close(ctx)

	var tables int
	err = conn.QueryRow(ctx, `
		select count(*)::int
		from information_schema.tables
		where table_type = 'BASE TABLE'
		  and table_schema not in ('pg_catalog', 'information_schema')`).Scan(&tables)
	if err != nil {
		return Result{Service: "postgres", Status: StatusDown, Reason: err.Error()}
	}

	return Result{
		Service: "postgres",
		Status:  StatusOK,
		Detail:  fmt.Sprintf("%d user tables", tables),
	}
}
