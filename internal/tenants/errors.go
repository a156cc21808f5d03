package tenants

import "errors"

var (
	// ErrInvalidTenantName is returned for empty, whitespace-only or over-long names.
	ErrInvalidTenantName = errors.New("invalid tenant name")
	// ErrDuplicateKey is returned by Directory.Insert when tenant_name or db_name is taken.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrDirectory wraps directory store failures surfaced by the provisioner.
	ErrDirectory = errors.New("directory error")
)
