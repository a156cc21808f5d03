package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"tenant-ingest/internal/tenants"
)

func withMemoryDirectory(t *testing.T) *tenants.MemoryRepo {
	t.Helper()
	repo := tenants.NewMemoryRepo()
	prev := openDirectory
	openDirectory = func(context.Context, string) (tenants.Directory, func(), error) {
		return repo, func() {}, nil
	}
	t.Cleanup(func() { openDirectory = prev })
	return repo
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd("")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDerivePrintsDBName(t *testing.T) {
	out, err := run(t, "derive", "Acme Corp")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if strings.TrimSpace(out) != "tenant_acme_corp" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestDeriveRejectsBlankName(t *testing.T) {
	if _, err := run(t, "derive", "  "); !errors.Is(err, tenants.ErrInvalidTenantName) {
		t.Fatalf("expected ErrInvalidTenantName, got %v", err)
	}
}

func TestResolveThenLookup(t *testing.T) {
	repo := withMemoryDirectory(t)

	out, err := run(t, "resolve", "Acme Corp")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.Contains(out, `"dbName": "tenant_acme_corp"`) {
		t.Fatalf("unexpected resolve output %q", out)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected one tenant, got %d", repo.Len())
	}

	out, err = run(t, "lookup", "Acme Corp")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !strings.Contains(out, `"tenantName": "Acme Corp"`) {
		t.Fatalf("unexpected lookup output %q", out)
	}
}

func TestLookupMissingTenant(t *testing.T) {
	repo := withMemoryDirectory(t)

	if _, err := run(t, "lookup", "Nobody"); !errors.Is(err, errNotFound) {
		t.Fatalf("expected errNotFound, got %v", err)
	}
	if repo.Len() != 0 {
		t.Fatalf("lookup must not provision")
	}
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	if _, err := run(t, "migrate", "--database-url", ""); err == nil || !strings.Contains(err.Error(), "DATABASE_URL is empty") {
		t.Fatalf("expected empty url error, got %v", err)
	}
}
