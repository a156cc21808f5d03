package tenants

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tenant-ingest/internal/shared/metrics"
	"tenant-ingest/internal/shared/telemetry"
)

// MaxTenantNameLen caps the trimmed tenant name in bytes.
const MaxTenantNameLen = 128

// Provisioner resolves tenant names to database names, creating directory
// entries on first use. It keeps no state between calls; the directory's
// uniqueness constraint is the only synchronization between concurrent
// first-time callers, across processes as well as goroutines.
type Provisioner struct {
	Directory Directory
}

// NewProvisioner constructs a Provisioner.
func NewProvisioner(dir Directory) *Provisioner {
	return &Provisioner{Directory: dir}
}

// Resolve returns the database name for tenantName.
// The stored db_name wins over the freshly derived candidate.
func (p *Provisioner) Resolve(ctx context.Context, tenantName string) (string, error) {
	t, err := p.ResolveTenant(ctx, tenantName)
	if err != nil {
		return "", err
	}
	return t.DBName, nil
}

// ResolveTenant is Resolve returning the full directory entry.
func (p *Provisioner) ResolveTenant(ctx context.Context, tenantName string) (Tenant, error) {
	if p == nil || p.Directory == nil {
		return Tenant{}, fmt.Errorf("%w: provisioner not configured", ErrDirectory)
	}
	name := strings.TrimSpace(tenantName)
	if name == "" {
		return Tenant{}, ErrInvalidTenantName
	}
	if len(name) > MaxTenantNameLen {
		return Tenant{}, fmt.Errorf("%w: longer than %d bytes", ErrInvalidTenantName, MaxTenantNameLen)
	}
	candidate := DeriveDBName(name)

	existing, found, err := p.Directory.Lookup(ctx, name)
	if err != nil {
		return Tenant{}, fmt.Errorf("%w: lookup %q: %w", ErrDirectory, name, err)
	}
	if found {
		return existing, nil
	}

	created, err := p.Directory.Insert(ctx, name, candidate)
	if err == nil {
		metrics.IncTenantProvisioned()
		telemetry.Info("tenant.provisioned", map[string]any{
			"tenant":  name,
			"db_name": created.DBName,
		})
		return created, nil
	}
	if !errors.Is(err, ErrDuplicateKey) {
		return Tenant{}, fmt.Errorf("%w: insert %q: %w", ErrDirectory, name, err)
	}

	// Lost a first-use race: re-read once.
	metrics.IncProvisionRace()
	existing, found, lookupErr := p.Directory.Lookup(ctx, name)
	if lookupErr != nil {
		return Tenant{}, fmt.Errorf("%w: lookup %q after conflict: %w", ErrDirectory, name, lookupErr)
	}
	if !found {
		// The conflict was on db_name: another tenant name derives the same candidate.
		return Tenant{}, fmt.Errorf("%w: db name %q already claimed by another tenant: %w", ErrDirectory, candidate, err)
	}
	telemetry.Info("tenant.provision_race", map[string]any{
		"tenant":  name,
		"db_name": existing.DBName,
	})
	return existing, nil
}
