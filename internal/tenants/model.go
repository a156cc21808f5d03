package tenants

import "time"

// Tenant is a directory entry mapping a tenant name to its isolated database.
type Tenant struct {
	Name      string    `json:"tenantName"`
	DBName    string    `json:"dbName"`
	CreatedAt time.Time `json:"createdAt"`
}
