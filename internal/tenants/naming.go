package tenants

import (
	"strings"
	"unicode"

	"tenant-ingest/internal/shared/util"
)

// DBNamePrefix namespaces every tenant database.
const DBNamePrefix = "tenant_"

// maxDBNameLen is MongoDB's database name limit minus one byte of headroom.
const maxDBNameLen = 63

const hashSuffixLen = 8

// DeriveDBName maps a tenant name to its candidate database name.
// The mapping is pure: trim, lower-case, whitespace runs and characters MongoDB
// rejects in database names become "_", then DBNamePrefix is prepended.
// Over-long results are cut and suffixed with a short hash of the normalized name.
func DeriveDBName(tenantName string) string {
	normalized := normalize(tenantName)
	name := DBNamePrefix + normalized
	if len(name) <= maxDBNameLen {
		return name
	}
	suffix := "_" + util.HashKey(normalized)[:hashSuffixLen]
	return truncateBytes(name, maxDBNameLen-len(suffix)) + suffix
}

func normalize(tenantName string) string {
	fields := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(tenantName)), unicode.IsSpace)
	joined := strings.Join(fields, "_")
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '.', '"', '$', '*', '<', '>', ':', '|', '?', 0:
			return '_'
		}
		return r
	}, joined)
}

// truncateBytes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
