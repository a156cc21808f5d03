package tenants

import "context"

// Directory is the shared tenant name → database name mapping.
type Directory interface {
	// Lookup returns the entry for tenantName. A missing entry is reported
	// with found=false and a nil error.
	Lookup(ctx context.Context, tenantName string) (tenant Tenant, found bool, err error)
	// Insert creates a new entry. It fails with ErrDuplicateKey when
	// tenantName or dbName already exists.
	Insert(ctx context.Context, tenantName, dbName string) (Tenant, error)
}
