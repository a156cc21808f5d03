package tenants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PGRepo implements Directory using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Lookup fetches a tenant by exact name.
func (r *PGRepo) Lookup(ctx context.Context, tenantName string) (Tenant, bool, error) {
	const query = `
SELECT tenant_name, db_name, created_at
FROM tenants
WHERE tenant_name = $1
LIMIT 1`
	var t Tenant
	err := r.DB.QueryRowContext(ctx, query, tenantName).Scan(&t.Name, &t.DBName, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tenant{}, false, nil
		}
		return Tenant{}, false, err
	}
	return t, true, nil
}

// Insert creates the directory entry; created_at is assigned by the database.
func (r *PGRepo) Insert(ctx context.Context, tenantName, dbName string) (Tenant, error) {
	const query = `
INSERT INTO tenants (tenant_name, db_name)
VALUES ($1, $2)
RETURNING tenant_name, db_name, created_at`
	var t Tenant
	err := r.DB.QueryRowContext(ctx, query, tenantName, dbName).Scan(&t.Name, &t.DBName, &t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Tenant{}, fmt.Errorf("insert tenant %q: %w", tenantName, ErrDuplicateKey)
		}
		return Tenant{}, err
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

var _ Directory = (*PGRepo)(nil)
