package tenants

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestResolveProvisionsOnFirstUse(t *testing.T) {
	repo := NewMemoryRepo()
	p := NewProvisioner(repo)

	dbName, err := p.Resolve(context.Background(), "Acme Corp")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if dbName != "tenant_acme_corp" {
		t.Fatalf("expected tenant_acme_corp, got %q", dbName)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected one directory entry, got %d", repo.Len())
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	repo := NewMemoryRepo()
	p := NewProvisioner(repo)
	ctx := context.Background()

	first, err := p.Resolve(ctx, "Acme Corp")
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	second, err := p.Resolve(ctx, "Acme Corp")
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if first != second {
		t.Fatalf("expected same db name, got %q and %q", first, second)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected one directory entry, got %d", repo.Len())
	}
}

func TestResolveTrimsButDoesNotNormalizeLookupKey(t *testing.T) {
	repo := NewMemoryRepo()
	p := NewProvisioner(repo)
	ctx := context.Background()

	if _, err := p.Resolve(ctx, "  Acme Corp  "); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, found, _ := repo.Lookup(ctx, "Acme Corp"); !found {
		t.Fatalf("expected trimmed name to be stored")
	}
	if _, found, _ := repo.Lookup(ctx, "acme corp"); found {
		t.Fatalf("lookup key must not be case-normalized")
	}
}

func TestResolvePrefersStoredDBName(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	if _, err := repo.Insert(ctx, "Acme Corp", "tenant_legacy_acme"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	dbName, err := NewProvisioner(repo).Resolve(ctx, "Acme Corp")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if dbName != "tenant_legacy_acme" {
		t.Fatalf("expected stored db name, got %q", dbName)
	}
}

func TestResolveRejectsBlankNames(t *testing.T) {
	repo := NewMemoryRepo()
	p := NewProvisioner(repo)

	for _, name := range []string{"", "   ", "\t\n"} {
		if _, err := p.Resolve(context.Background(), name); !errors.Is(err, ErrInvalidTenantName) {
			t.Fatalf("Resolve(%q): expected ErrInvalidTenantName, got %v", name, err)
		}
	}
	if repo.Len() != 0 {
		t.Fatalf("expected no writes, got %d entries", repo.Len())
	}
}

func TestResolveRejectsOverlongNames(t *testing.T) {
	repo := NewMemoryRepo()
	p := NewProvisioner(repo)

	atLimit := strings.Repeat("a", MaxTenantNameLen)
	if _, err := p.Resolve(context.Background(), "  "+atLimit+"  "); err != nil {
		t.Fatalf("Resolve at limit: %v", err)
	}
	tooLong := strings.Repeat("a", MaxTenantNameLen+1)
	if _, err := p.Resolve(context.Background(), tooLong); !errors.Is(err, ErrInvalidTenantName) {
		t.Fatalf("expected ErrInvalidTenantName, got %v", err)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected only the at-limit tenant, got %d entries", repo.Len())
	}
}

func TestResolveDBNameCollisionSurfacesDirectoryError(t *testing.T) {
	repo := NewMemoryRepo()
	p := NewProvisioner(repo)
	ctx := context.Background()

	if _, err := p.Resolve(ctx, "Acme Corp"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	_, err := p.Resolve(ctx, "acme corp")
	if !errors.Is(err, ErrDirectory) {
		t.Fatalf("expected ErrDirectory, got %v", err)
	}
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected cause ErrDuplicateKey, got %v", err)
	}
}

type failingDirectory struct {
	lookupErr error
	insertErr error
}

func (f failingDirectory) Lookup(ctx context.Context, tenantName string) (Tenant, bool, error) {
	return Tenant{}, false, f.lookupErr
}

func (f failingDirectory) Insert(ctx context.Context, tenantName, dbName string) (Tenant, error) {
	return Tenant{}, f.insertErr
}

func TestResolveWrapsDirectoryFailures(t *testing.T) {
	boom := errors.New("connection refused")
	tests := []struct {
		name string
		dir  Directory
	}{
		{name: "lookup", dir: failingDirectory{lookupErr: boom}},
		{name: "insert", dir: failingDirectory{insertErr: boom}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvisioner(tt.dir).Resolve(context.Background(), "Acme Corp")
			if !errors.Is(err, ErrDirectory) || !errors.Is(err, boom) {
				t.Fatalf("expected ErrDirectory wrapping cause, got %v", err)
			}
		})
	}
}

func TestResolveUnconfiguredProvisioner(t *testing.T) {
	var p *Provisioner
	if _, err := p.Resolve(context.Background(), "Acme"); !errors.Is(err, ErrDirectory) {
		t.Fatalf("expected ErrDirectory, got %v", err)
	}
}

// barrierDirectory holds the first n lookups until all n have read the
// directory, so every caller observes the tenant as missing and races to insert.
type barrierDirectory struct {
	*MemoryRepo
	pending atomic.Int32
	arrived sync.WaitGroup
	inserts atomic.Int32
}

func newBarrierDirectory(n int) *barrierDirectory {
	d := &barrierDirectory{MemoryRepo: NewMemoryRepo()}
	d.pending.Store(int32(n))
	d.arrived.Add(n)
	return d
}

func (d *barrierDirectory) Lookup(ctx context.Context, tenantName string) (Tenant, bool, error) {
	t, found, err := d.MemoryRepo.Lookup(ctx, tenantName)
	if d.pending.Add(-1) >= 0 {
		d.arrived.Done()
		d.arrived.Wait()
	}
	return t, found, err
}

func (d *barrierDirectory) Insert(ctx context.Context, tenantName, dbName string) (Tenant, error) {
	d.inserts.Add(1)
	return d.MemoryRepo.Insert(ctx, tenantName, dbName)
}

func TestResolveConcurrentFirstUse(t *testing.T) {
	const callers = 8
	dir := newBarrierDirectory(callers)
	p := NewProvisioner(dir)

	results := make([]string, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		i := i
		g.Go(func() error {
			dbName, err := p.Resolve(context.Background(), "Brand New Co")
			results[i] = dbName
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent Resolve: %v", err)
	}

	for i, got := range results {
		if got != results[0] {
			t.Fatalf("caller %d resolved %q, caller 0 resolved %q", i, got, results[0])
		}
	}
	if results[0] != "tenant_brand_new_co" {
		t.Fatalf("unexpected db name %q", results[0])
	}
	if dir.Len() != 1 {
		t.Fatalf("expected exactly one tenant, got %d", dir.Len())
	}
	if got := dir.inserts.Load(); got != callers {
		t.Fatalf("expected every caller to attempt the insert, got %d", got)
	}
}
