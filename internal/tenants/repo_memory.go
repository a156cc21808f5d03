package tenants

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Directory that enforces the same uniqueness
// constraints as the Postgres table.
type MemoryRepo struct {
	mu      sync.RWMutex
	byName  map[string]Tenant
	dbNames map[string]string // db_name -> tenant_name
	now     func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byName:  make(map[string]Tenant),
		dbNames: make(map[string]string),
		now:     time.Now,
	}
}

// Lookup returns the tenant stored under the exact name.
func (r *MemoryRepo) Lookup(ctx context.Context, tenantName string) (Tenant, bool, error) {
	if err := ctx.Err(); err != nil {
		return Tenant{}, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[tenantName]
	return t, ok, nil
}

// Insert stores a new tenant or fails with ErrDuplicateKey.
func (r *MemoryRepo) Insert(ctx context.Context, tenantName, dbName string) (Tenant, error) {
	if err := ctx.Err(); err != nil {
		return Tenant{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[tenantName]; ok {
		return Tenant{}, fmt.Errorf("insert tenant %q: %w", tenantName, ErrDuplicateKey)
	}
	if owner, ok := r.dbNames[dbName]; ok {
		return Tenant{}, fmt.Errorf("insert tenant %q: db_name %q held by %q: %w", tenantName, dbName, owner, ErrDuplicateKey)
	}
	t := Tenant{Name: tenantName, DBName: dbName, CreatedAt: r.now().UTC()}
	r.byName[tenantName] = t
	r.dbNames[dbName] = tenantName
	return t, nil
}

// Len reports the number of stored tenants.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

var _ Directory = (*MemoryRepo)(nil)
